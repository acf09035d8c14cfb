// Package harness runs compilation scenarios: a definition file, a query
// to compile and assertions over the resulting program.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: transitive_closure
//	description: "path compiles to one recursive predicate"
//	definitions: ../defs/graph.yaml   # relative to the scenario file
//	query: path
//	dialect: datalog                  # or mangle; default datalog
//	expect:
//	  predicates: 5
//	  rules: 6
//	assertions:
//	  - type: rule_contains
//	    predicate: p0
//	    rule: "p0(v8, v9) :- p1(v8, v9)."
//	  - type: recursive
//	    predicate: p1
//
// A scenario whose query must not translate sets expect.error to the
// translator error code instead, and needs no assertions.
//
// # Assertion Types
//
//   - rule_contains: the predicate has a rule rendering exactly as rule
//   - rule_count: the predicate has exactly count rules
//   - arity: the predicate's head has arity columns
//   - recursive: the predicate belongs to a recursive component
//   - extensional: the program reads exactly the listed input relations
//   - deterministic: a second compilation renders byte-identical text
//
// # Recording
//
// Each run records its compilation in a fresh in-memory store and reads
// it back; predicate assertions are evaluated against the stored summary,
// so a scenario also checks what history would report for the query.
//
// # Golden Files
//
// RunWithGolden compares the rendered program with
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
