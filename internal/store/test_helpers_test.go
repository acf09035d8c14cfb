package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/linearfn/internal/ir"
)

// createTestStore opens a fresh database under t.TempDir with
// deterministic IDs "c1", "c2", ...
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(NewFixedGenerator("c1", "c2", "c3", "c4", "c5")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// closureProgram is a two-predicate program where p1 is recursive:
//
//	p0(v0, v1) :- p1(v0, v1).
//	p1(v2, v3) :- edge(v2, v3).
//	p1(v2, v3) :- p1(v2, v4), edge(v4, v3).
func closureProgram() *ir.Program {
	p := ir.NewProgram()
	p.AddRule(ir.Rule{
		Head: ir.NewAtom("p0", ir.V("v0"), ir.V("v1")),
		Body: []ir.Atom{ir.NewAtom("p1", ir.V("v0"), ir.V("v1"))},
	})
	p.AddRule(ir.Rule{
		Head: ir.NewAtom("p1", ir.V("v2"), ir.V("v3")),
		Body: []ir.Atom{ir.NewAtom("edge", ir.V("v2"), ir.V("v3"))},
	})
	p.AddRule(ir.Rule{
		Head: ir.NewAtom("p1", ir.V("v2"), ir.V("v3")),
		Body: []ir.Atom{
			ir.NewAtom("p1", ir.V("v2"), ir.V("v4")),
			ir.NewAtom("edge", ir.V("v4"), ir.V("v3")),
		},
	})
	return p
}

func testCompilation(name string) Compilation {
	prog := closureProgram()
	return NewCompilation(name, "defs/closure.yaml", "datalog", prog.Text(), prog)
}
