package expr

// Fun is a lambda over one row: a fresh Ref parameter and a body.
type Fun struct {
	Param Ref
	Body  Expr
}

// Lambda mints a fresh parameter and builds the body from it.
//
//	expr.Lambda(func(r expr.Ref) expr.Expr {
//	    return expr.Equal(r.Col("field1"), expr.Int(5))
//	})
func Lambda(body func(r Ref) Expr) Fun {
	r := NewRef()
	return Fun{Param: r, Body: body(r)}
}

// String renders "r1 => body".
func (f Fun) String() string {
	return f.Param.String() + " => " + f.Body.String()
}

// Refs returns the IDs of every Ref that appears in e, including Refs under
// Select targets.
func Refs(e Expr) map[uint64]bool {
	out := make(map[uint64]bool)
	collectRefs(e, out)
	return out
}

func collectRefs(e Expr, out map[uint64]bool) {
	switch x := e.(type) {
	case Ref:
		out[x.ID] = true
	case Select:
		collectRefs(x.X, out)
	case Project:
		for _, f := range x.Fields {
			collectRefs(f.Expr, out)
		}
	case Plus:
		collectRefs(x.L, out)
		collectRefs(x.R, out)
	case Eq:
		collectRefs(x.L, out)
		collectRefs(x.R, out)
	case And:
		collectRefs(x.L, out)
		collectRefs(x.R, out)
	}
}
