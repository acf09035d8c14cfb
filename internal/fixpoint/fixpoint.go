// Package fixpoint builds groups of mutually recursive queries.
//
// Build is the least-fixed-point construction: each member of the group
// is its base case unioned with a body that may read any member through
// an IntensionalRef. The group is assembled once; evaluation is left to
// whatever engine runs the translated rules.
package fixpoint

import (
	"fmt"

	"github.com/roach88/linearfn/internal/query"
)

// BodyFunc receives one reference per base and returns one recursive body
// per base, in the same order.
type BodyFunc func(refs []query.IntensionalRef) []query.Query

// Build mints one IntensionalRef per base, calls body with them and
// returns one IntensionalPredicates per base, all sharing a single group
// whose member i is Union(bases[i], body(refs)[i]).
//
// Usage multiplicity of the references is not checked here.
func Build(bases []query.Query, body BodyFunc) ([]query.Query, error) {
	if len(bases) == 0 {
		return nil, fmt.Errorf("fixpoint: no base queries")
	}
	if body == nil {
		return nil, fmt.Errorf("fixpoint: nil body function")
	}
	for i, b := range bases {
		if b == nil {
			return nil, fmt.Errorf("fixpoint: base %d is nil", i)
		}
	}

	refs := make([]query.IntensionalRef, len(bases))
	for i := range refs {
		refs[i] = query.NewIntensionalRef()
	}

	results := body(refs)
	if len(results) != len(bases) {
		return nil, &CountError{Bases: len(bases), Results: len(results)}
	}

	members := make([]query.Member, len(bases))
	for i, base := range bases {
		if results[i] == nil {
			return nil, fmt.Errorf("fixpoint: body %d is nil", i)
		}
		members[i] = query.Member{Ref: refs[i], Body: query.NewUnion(base, results[i])}
	}
	group := query.NewGroup(members...)

	// refs are minted in ascending order, so group position i is base i.
	out := make([]query.Query, len(bases))
	for i := range out {
		out[i] = query.IntensionalPredicates{Group: group, Index: i}
	}
	return out, nil
}

// Build2 is Build for the common two-member case.
func Build2(b1, b2 query.Query, body func(a1, a2 query.IntensionalRef) (query.Query, query.Query)) (query.Query, query.Query, error) {
	out, err := Build([]query.Query{b1, b2}, func(refs []query.IntensionalRef) []query.Query {
		r1, r2 := body(refs[0], refs[1])
		return []query.Query{r1, r2}
	})
	if err != nil {
		return nil, nil, err
	}
	return out[0], out[1], nil
}

// Build1 is Build for a single self-recursive query.
func Build1(base query.Query, body func(self query.IntensionalRef) query.Query) (query.Query, error) {
	out, err := Build([]query.Query{base}, func(refs []query.IntensionalRef) []query.Query {
		return []query.Query{body(refs[0])}
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// CountError reports a body function that returned the wrong number of
// queries.
type CountError struct {
	Bases   int
	Results int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("fixpoint: arity mismatch: %d bases but body returned %d queries", e.Bases, e.Results)
}
