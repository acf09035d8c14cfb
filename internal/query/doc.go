// Package query provides the query algebra: immutable relational operator
// nodes that the translator lowers to logic programs.
//
// ARCHITECTURE:
//
//	[combinators] → [Query tree] → [translate] → [ir.Program] → text
//
// NODES:
//   - EDB(name, columns) - opaque base relation with declared arity
//   - Filter(from, pred) - rows of from satisfying pred
//   - Map(from, f) - rows of from transformed by f
//   - FlatMap(from, f) - correlated join: for each row of from, the rows of f(row)
//   - Union(left, right) - set union of same-arity queries
//   - IntensionalRef - forward reference to a recursive predicate
//   - IntensionalPredicates(group, idx) - one member of a resolved recursive group
//
// SEALED INTERFACES:
//
// Query is a sealed interface using the marker method pattern, so the
// translator can switch exhaustively:
//
//	switch q := query.(type) {
//	case query.EDB:
//	case query.Filter:
//	...
//	}
//
// ROW SHAPE:
//
// Every node produces rows with a known list of column names. EDB declares
// them, Map derives them from its projection, FlatMap takes them from its
// inner query and Union from its left side. Columns are resolved by name,
// then by the positional suffix convention ("field2" → second column).
//
// IDENTITY:
//
// IntensionalRef identity is its ID, minted from a process-wide atomic
// counter. A Group is shared by pointer between every IntensionalPredicates
// node built from it.
package query
