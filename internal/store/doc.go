// Package store provides SQLite-backed storage for compiled programs.
//
// Every compilation the CLI runs can be recorded:
//   - Compilations: one row per compiled query (id, query name, dialect,
//     program hash, rendered text, counts, versions)
//   - Predicates: one row per predicate of a compilation, in program order,
//     with arity, rule count and whether it is recursive
//
// # Ordering
//
// Compilations carry a seq INTEGER assigned on insert. All list queries
// order by seq ASC, id ASC COLLATE BINARY, so history reads are
// deterministic. Predicates order by position.
//
// # Identity
//
// Compilation IDs are UUIDv7 strings from an IDGenerator; tests use a
// FixedGenerator. Program hashes come from ir.HashText, so identical text
// in the same dialect always has the same hash.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
