package ir

// Version constants for the IR and the compiler.
const (
	// IRVersion is the logic-program IR schema version.
	IRVersion = "1"

	// CompilerVersion is the linearfn compiler version.
	CompilerVersion = "0.1.0"
)
