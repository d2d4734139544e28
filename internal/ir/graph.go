package ir

import (
	"fmt"
)

// Node is one recorded IR instruction.
// Nodes are created only through Graph.CreateNode and are never mutated,
// except for the name, which changes only through Graph.Rename.
type Node struct {
	name     string
	kind     Kind
	target   Target
	args     Tuple
	kwargs   Dict
	typeHint string
	graph    *Graph // owning graph (non-owning back-reference)
}

// Name returns the node's current name, unique within its graph.
func (n *Node) Name() string { return n.name }

// Kind returns what the node records.
func (n *Node) Kind() Kind { return n.kind }

// Target returns the invoked symbol.
func (n *Node) Target() Target { return n.target }

// Args returns the positional arguments.
func (n *Node) Args() Tuple { return n.args }

// Kwargs returns the keyword arguments.
func (n *Node) Kwargs() Dict { return n.kwargs }

// TypeHint returns the optional type annotation, or "".
func (n *Node) TypeHint() string { return n.typeHint }

// Graph returns the graph that owns this node.
func (n *Node) Graph() *Graph { return n.graph }

// String returns "%name".
func (n *Node) String() string { return "%" + n.name }

// Graph is the append-only, ordered collection of nodes produced by a trace.
// It owns the unique-name allocator: every name it hands out stays reserved
// for the life of the graph, so renames can never collide.
//
// Thread-safety: Graph is NOT safe for concurrent mutation. Two tracers must
// never record into the same graph without external serialization.
type Graph struct {
	nodes  []*Node
	byName map[string]*Node
	used   map[string]bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byName: make(map[string]*Node),
		used:   make(map[string]bool),
	}
}

// CreateNode appends a node and returns it.
//
// When name is empty the candidate name is RenderTarget(target). The final
// name always goes through UniqueName, so two nodes whose candidates are both
// "x" become "x" and "x_1".
//
// Every node referenced from args or kwargs must already belong to this graph.
func (g *Graph) CreateNode(kind Kind, target Target, args Tuple, kwargs Dict, name, typeHint string) (*Node, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("create node: invalid kind %q", kind)
	}
	if target == nil {
		return nil, fmt.Errorf("create node: %s node requires a target", kind)
	}
	if kind == KindCallFunction {
		if _, ok := target.(Function); !ok {
			return nil, fmt.Errorf("create node: call_function target must be a Function, got %T", target)
		}
	}

	args, _ = normalize(args).(Tuple)
	kwargs, _ = normalize(kwargs).(Dict)
	if args == nil {
		args = Tuple{}
	}
	if kwargs == nil {
		kwargs = Dict{}
	}

	var foreign *Node
	check := func(ref *Node) {
		if foreign == nil && ref.graph != g {
			foreign = ref
		}
	}
	WalkNodes(args, check)
	WalkNodes(kwargs, check)
	if foreign != nil {
		return nil, fmt.Errorf("create node: argument %s belongs to a different graph", foreign)
	}

	candidate := name
	if candidate == "" {
		candidate = g.RenderTarget(target)
	}

	n := &Node{
		name:     g.UniqueName(candidate),
		kind:     kind,
		target:   target,
		args:     args,
		kwargs:   kwargs,
		typeHint: typeHint,
		graph:    g,
	}
	g.nodes = append(g.nodes, n)
	g.byName[n.name] = n
	return n, nil
}

// UniqueName allocates a name derived from candidate that no node of this
// graph has ever held, and reserves it.
func (g *Graph) UniqueName(candidate string) string {
	name := sanitizeName(candidate)
	for g.used[name] || reservedNames[name] {
		name = nextName(name)
	}
	g.used[name] = true
	return name
}

// RenderTarget produces the display string used to seed default node names.
func (g *Graph) RenderTarget(target Target) string {
	switch t := target.(type) {
	case Function:
		return renderSymbol(t.Name)
	case Name:
		return renderSymbol(string(t))
	case nil:
		return "_"
	default:
		return renderSymbol(t.String())
	}
}

// Rename gives n a uniquified version of candidate and returns the new name.
// Renaming to the current name is a no-op. The old name stays reserved.
func (g *Graph) Rename(n *Node, candidate string) (string, error) {
	if n == nil || n.graph != g {
		return "", fmt.Errorf("rename: node does not belong to this graph")
	}
	if candidate == n.name {
		return n.name, nil
	}
	name := g.UniqueName(candidate)
	delete(g.byName, n.name)
	n.name = name
	g.byName[name] = n
	return name, nil
}

// Nodes returns the nodes in recording order.
// The returned slice is a copy; the nodes are shared.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Lookup returns the node currently named name.
func (g *Graph) Lookup(name string) (*Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// Placeholders returns the placeholder nodes in order.
func (g *Graph) Placeholders() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.kind == KindPlaceholder {
			out = append(out, n)
		}
	}
	return out
}

// Users returns the nodes whose args or kwargs reference n, in recording order.
func (g *Graph) Users(n *Node) []*Node {
	var users []*Node
	for _, candidate := range g.nodes {
		uses := false
		mark := func(ref *Node) {
			if ref == n {
				uses = true
			}
		}
		WalkNodes(candidate.args, mark)
		WalkNodes(candidate.kwargs, mark)
		if uses {
			users = append(users, candidate)
		}
	}
	return users
}
