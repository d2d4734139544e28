package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/symtrace/internal/ir"
)

// ExtendsCycle describes a loop in the extends relation of a catalog.
type ExtendsCycle struct {
	Path    []string `json:"path"`    // Cycle path: ["A", "B", "A"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeExtends finds every cycle in the extends relation of specs.
//
// It builds a type → parent graph and runs Tarjan's algorithm over it. Each
// strongly connected component with more than one type, or a type that
// extends itself, is one cycle. An acyclic catalog returns an empty list.
// Types are visited in name order so the result is deterministic.
func AnalyzeExtends(specs []ir.TypeSpec) []ExtendsCycle {
	graph := buildExtendsGraph(specs)

	cycles := []ExtendsCycle{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

// ResolveCatalog flattens inheritance: every returned spec carries its own
// members followed by those inherited from its ancestors (duplicates
// dropped) and has Extends cleared. Order follows the input.
//
// Fails on an unknown parent or an extends cycle.
func ResolveCatalog(specs []ir.TypeSpec) ([]ir.TypeSpec, error) {
	byName := make(map[string]ir.TypeSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}
	for _, s := range specs {
		if s.Extends != "" {
			if _, ok := byName[s.Extends]; !ok {
				return nil, &CompileError{
					Field:   "extends",
					Message: fmt.Sprintf("type %q extends unknown type %q", s.Name, s.Extends),
				}
			}
		}
	}
	if cycles := AnalyzeExtends(specs); len(cycles) > 0 {
		return nil, &CompileError{Field: "extends", Message: cycles[0].Message}
	}

	resolved := make([]ir.TypeSpec, 0, len(specs))
	for _, s := range specs {
		out := ir.TypeSpec{
			Name:       s.Name,
			Doc:        s.Doc,
			Methods:    []string{},
			Properties: []string{},
		}
		for cur, ok := s, true; ok; cur, ok = byName[cur.Extends] {
			out.Methods = appendMissing(out.Methods, cur.Methods)
			out.Properties = appendMissing(out.Properties, cur.Properties)
			if cur.Extends == "" {
				break
			}
		}
		resolved = append(resolved, out)
	}
	return resolved, nil
}

// Lookup returns the spec named name.
func Lookup(specs []ir.TypeSpec, name string) (ir.TypeSpec, bool) {
	i := slices.IndexFunc(specs, func(s ir.TypeSpec) bool { return s.Name == name })
	if i < 0 {
		return ir.TypeSpec{}, false
	}
	return specs[i], true
}

func appendMissing(dst, src []string) []string {
	for _, name := range src {
		if !slices.Contains(dst, name) {
			dst = append(dst, name)
		}
	}
	return dst
}

// extendsGraph maps type name → parent type names.
type extendsGraph map[string][]string

func buildExtendsGraph(specs []ir.TypeSpec) extendsGraph {
	graph := make(extendsGraph)
	for _, s := range specs {
		// Initialize with empty slice if no edges (ensures node exists in graph)
		if graph[s.Name] == nil {
			graph[s.Name] = []string{}
		}
		if s.Extends != "" {
			graph[s.Name] = append(graph[s.Name], s.Extends)
		}
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph extendsGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of type names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph extendsGraph) [][]string {
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
		// Set the depth index for v
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		// Consider successors of v
		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				// Successor w has not yet been visited; recurse on it
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				// Successor w is on stack and hence in the current SCC
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
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

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// sccToCycle converts an SCC to an ExtendsCycle, starting the path at the
// alphabetically first member.
func sccToCycle(scc []string, graph extendsGraph) ExtendsCycle {
	if len(scc) == 1 {
		name := scc[0]
		return ExtendsCycle{
			Path:    []string{name, name},
			Message: fmt.Sprintf("type %s extends itself", name),
		}
	}

	members := make(map[string]bool, len(scc))
	for _, name := range scc {
		members[name] = true
	}
	start := slices.Min(scc)

	path := []string{start}
	for cur := start; ; {
		var next string
		for _, parent := range graph[cur] {
			if members[parent] {
				next = parent
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
		cur = next
	}

	return ExtendsCycle{
		Path:    path,
		Message: fmt.Sprintf("extends cycle detected: %s", strings.Join(path, " -> ")),
	}
}
