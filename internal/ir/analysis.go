package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Component is a set of mutually recursive predicates.
type Component struct {
	Predicates []string `json:"predicates"` // Members in program order
	Path       []string `json:"path"`       // One cycle through the members: ["p1", "p2", "p1"]
	Message    string   `json:"message"`
}

// Analysis summarizes the dependency structure of a program.
type Analysis struct {
	// Extensional lists predicates referenced in rule bodies that no rule
	// defines. These must be supplied as facts by the Datalog engine.
	Extensional []string `json:"extensional"`

	// Recursive lists strongly connected components of the dependency graph
	// with more than one member or a self-loop.
	Recursive []Component `json:"recursive"`
}

// IsRecursive reports whether pred belongs to a recursive component.
func (a Analysis) IsRecursive(pred string) bool {
	for _, c := range a.Recursive {
		if slices.Contains(c.Predicates, pred) {
			return true
		}
	}
	return false
}

// Analyze builds the predicate dependency graph (head → body predicates)
// and reports extensional inputs and recursive components.
//
// The algorithm:
//  1. Build head → body edges from every rule, in program order
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as recursive
//
// Analyze is a pure function; output order follows program order.
func Analyze(p *Program) Analysis {
	graph, nodes := buildDependencyGraph(p)

	defined := make(map[string]bool, p.Len())
	for _, def := range p.Predicates() {
		defined[def.Name] = true
	}

	res := Analysis{Extensional: []string{}, Recursive: []Component{}}
	for _, n := range nodes {
		if !defined[n] {
			res.Extensional = append(res.Extensional, n)
		}
	}
	slices.Sort(res.Extensional)

	position := make(map[string]int, len(nodes))
	for i, n := range nodes {
		position[n] = i
	}

	for _, scc := range tarjanSCC(graph, nodes) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			slices.SortFunc(scc, func(a, b string) int { return position[a] - position[b] })
			res.Recursive = append(res.Recursive, sccToComponent(scc, graph))
		}
	}
	slices.SortFunc(res.Recursive, func(a, b Component) int {
		return position[a.Predicates[0]] - position[b.Predicates[0]]
	})
	return res
}

// dependencyGraph maps predicate → predicates its rules read.
type dependencyGraph map[string][]string

// buildDependencyGraph returns the graph and every node in first-seen order.
func buildDependencyGraph(p *Program) (dependencyGraph, []string) {
	graph := make(dependencyGraph)
	var nodes []string
	seen := make(map[string]bool)
	visit := func(n string) {
		if !seen[n] {
			seen[n] = true
			nodes = append(nodes, n)
		}
	}

	for _, def := range p.Predicates() {
		visit(def.Name)
		if graph[def.Name] == nil {
			graph[def.Name] = []string{}
		}
		for _, r := range def.Rules {
			for _, a := range r.Body {
				visit(a.Predicate)
				if !slices.Contains(graph[def.Name], a.Predicate) {
					graph[def.Name] = append(graph[def.Name], a.Predicate)
				}
			}
		}
	}
	return graph, nodes
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order so the result is deterministic.
func tarjanSCC(graph dependencyGraph, nodes []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// sccToComponent converts an SCC to a Component with a cycle path.
func sccToComponent(scc []string, graph dependencyGraph) Component {
	if len(scc) == 1 {
		pred := scc[0]
		return Component{
			Predicates: scc,
			Path:       []string{pred, pred},
			Message:    fmt.Sprintf("self-recursive predicate: %s → %s", pred, pred),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return Component{
		Predicates: scc,
		Path:       path,
		Message:    fmt.Sprintf("mutually recursive predicates: %s", strings.Join(path, " → ")),
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
