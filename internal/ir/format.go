package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the graph as a readable listing:
//
//	graph(x):
//	    %x : [#users=1] = placeholder[target=x]
//	    %relu : [#users=1] = call_method[target=relu](args = (%x,), kwargs = {})
//	    return %relu
//
// The listing is stable for a given graph and is what golden files compare.
func (g *Graph) String() string {
	var b strings.Builder

	params := make([]string, 0)
	for _, p := range g.Placeholders() {
		params = append(params, p.name)
	}
	fmt.Fprintf(&b, "graph(%s):\n", strings.Join(params, ", "))

	users := make(map[*Node]int, len(g.nodes))
	for _, n := range g.nodes {
		seen := make(map[*Node]bool)
		count := func(ref *Node) {
			if !seen[ref] {
				seen[ref] = true
				users[ref]++
			}
		}
		WalkNodes(n.args, count)
		WalkNodes(n.kwargs, count)
	}

	for _, n := range g.nodes {
		b.WriteString("    ")
		b.WriteString(formatNode(n, users[n]))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatNode(n *Node, users int) string {
	if n.kind == KindOutput {
		if len(n.args) == 1 && len(n.kwargs) == 0 {
			return "return " + FormatArgument(n.args[0])
		}
		return "return " + FormatArgument(n.args)
	}

	hint := ""
	if n.typeHint != "" {
		hint = " " + n.typeHint
	}
	head := fmt.Sprintf("%%%s :%s [#users=%d] = %s[target=%s]", n.name, hint, users, n.kind, n.target)

	switch n.kind {
	case KindPlaceholder, KindGetAttr:
		if len(n.args) == 0 && len(n.kwargs) == 0 {
			return head
		}
	}
	return fmt.Sprintf("%s(args = %s, kwargs = %s)", head, FormatArgument(n.args), FormatArgument(n.kwargs))
}

// FormatArgument renders an argument the way the graph listing shows it.
func FormatArgument(a Argument) string {
	switch v := a.(type) {
	case nil, None:
		return "nil"
	case Bool:
		return strconv.FormatBool(bool(v))
	case Int:
		return strconv.FormatInt(int64(v), 10)
	case Float:
		s := formatFloat(float64(v))
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case String:
		return strconv.Quote(string(v))
	case *Node:
		return v.String()
	case List:
		return "[" + joinArguments(v) + "]"
	case Tuple:
		if len(v) == 1 {
			return "(" + FormatArgument(v[0]) + ",)"
		}
		return "(" + joinArguments(v) + ")"
	case Dict:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = e.Key + ": " + FormatArgument(e.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Slice:
		return "slice(" + joinArguments([]Argument{v.Start, v.Stop, v.Step}) + ")"
	default:
		return fmt.Sprintf("<%T>", a)
	}
}

func joinArguments(elems []Argument) string {
	parts := make([]string, len(elems))
	for i, elem := range elems {
		parts[i] = FormatArgument(elem)
	}
	return strings.Join(parts, ", ")
}
