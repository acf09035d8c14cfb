// Package ir provides the logic-program intermediate representation that
// query translation targets.
//
// A Program is a set of named predicates. Each PredicateDef is an ordered
// list of Rules read as a disjunction: the predicate holds for a tuple if
// ANY of its rules derives it. A Rule derives its head Atom when all body
// Atoms and all Constraints hold.
//
// This package contains type definitions, the text renderer and simple
// static analysis only. It imports nothing internal; every other internal
// package imports ir.
//
// Key design constraints:
//   - NO float constants - use int64 for numbers
//   - Terms are value types, compared with ==
//   - Predicate iteration order is insertion order, so rendering is
//     deterministic for identical programs
//   - String constants are NFC normalized at construction
//
// Rendered text follows the usual Datalog shape:
//
//	p1(v0, v1) :- edge(v0, v1).
//
//	p0(v1) :- p1(v0, v1), v0 == 5.
package ir
