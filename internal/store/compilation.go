package store

import "github.com/roach88/linearfn/internal/ir"

// Compilation is one recorded compiled program.
type Compilation struct {
	ID              string          `json:"id"`
	Seq             int64           `json:"seq"`
	QueryName       string          `json:"query"`
	Source          string          `json:"source,omitempty"` // definition file the query came from, if any
	Dialect         string          `json:"dialect"`          // "datalog" or "mangle"
	Hash            string          `json:"hash"`
	Text            string          `json:"text"`
	PredicateCount  int             `json:"predicate_count"`
	RuleCount       int             `json:"rule_count"`
	CompilerVersion string          `json:"compiler_version"`
	IRVersion       string          `json:"ir_version"`
	Predicates      []PredicateInfo `json:"predicates,omitempty"`
}

// PredicateInfo summarizes one predicate of a compiled program.
type PredicateInfo struct {
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Arity     int    `json:"arity"`
	RuleCount int    `json:"rule_count"`
	Recursive bool   `json:"recursive"`
}

// NewCompilation describes prog rendered as text in dialect.
// ID and Seq are assigned by WriteCompilation.
func NewCompilation(queryName, source, dialect, text string, prog *ir.Program) Compilation {
	analysis := ir.Analyze(prog)
	preds := make([]PredicateInfo, 0, prog.Len())
	for i, def := range prog.Predicates() {
		info := PredicateInfo{
			Position:  i,
			Name:      def.Name,
			RuleCount: len(def.Rules),
			Recursive: analysis.IsRecursive(def.Name),
		}
		if len(def.Rules) > 0 {
			info.Arity = def.Rules[0].Head.Arity()
		}
		preds = append(preds, info)
	}

	return Compilation{
		QueryName:       queryName,
		Source:          source,
		Dialect:         dialect,
		Hash:            ir.HashText(dialect, text),
		Text:            text,
		PredicateCount:  prog.Len(),
		RuleCount:       prog.RuleCount(),
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.IRVersion,
		Predicates:      preds,
	}
}
