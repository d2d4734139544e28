package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/symtrace/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the full graph listing to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Listing  string // Graph listing for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Full graph for context
	if e.Listing != "" {
		fmt.Fprintf(&buf, "\nGraph:\n%s", e.Listing)
	}

	return buf.String()
}

// assertNodeCount checks the total number of recorded nodes.
func assertNodeCount(g *ir.Graph, assertion Assertion) error {
	if g.Len() == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertNodeCount,
		Expected: fmt.Sprintf("%d nodes", assertion.Count),
		Actual:   fmt.Sprintf("%d nodes", g.Len()),
		Listing:  g.String(),
	}
}

// assertNodeExists checks that some node matches every field the
// assertion sets.
func assertNodeExists(g *ir.Graph, assertion Assertion) error {
	for _, n := range g.Nodes() {
		if nodeMatches(n, assertion) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertNodeExists,
		Expected: "node with " + describeSelector(assertion),
		Actual:   "not found in graph",
		Listing:  g.String(),
	}
}

func nodeMatches(n *ir.Node, a Assertion) bool {
	if a.Name != "" && n.Name() != a.Name {
		return false
	}
	if a.Kind != "" && string(n.Kind()) != a.Kind {
		return false
	}
	if a.Target != "" && n.Target().String() != a.Target {
		return false
	}
	if a.Args != "" && ir.FormatArgument(n.Args()) != a.Args {
		return false
	}
	return true
}

func describeSelector(a Assertion) string {
	var parts []string
	if a.Name != "" {
		parts = append(parts, "name="+a.Name)
	}
	if a.Kind != "" {
		parts = append(parts, "kind="+a.Kind)
	}
	if a.Target != "" {
		parts = append(parts, "target="+a.Target)
	}
	if a.Args != "" {
		parts = append(parts, "args="+a.Args)
	}
	return strings.Join(parts, " ")
}

// assertNodeOrder checks that the named nodes were recorded in the given
// order. Intervening nodes are allowed.
func assertNodeOrder(g *ir.Graph, assertion Assertion) error {
	nodes := g.Nodes()
	positions := make(map[string]int, len(assertion.Names))

	// Step 1: Find the position of each expected node
	for _, name := range assertion.Names {
		i := slices.IndexFunc(nodes, func(n *ir.Node) bool { return n.Name() == name })
		if i < 0 {
			return &AssertionError{
				Type:     AssertNodeOrder,
				Expected: fmt.Sprintf("all nodes present: %v", assertion.Names),
				Actual:   fmt.Sprintf("missing node: %s", name),
				Listing:  g.String(),
			}
		}
		positions[name] = i + 1 // 1-indexed for readability
	}

	// Step 2: Verify order
	for i := 1; i < len(assertion.Names); i++ {
		prev := assertion.Names[i-1]
		curr := assertion.Names[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertNodeOrder,
				Expected: fmt.Sprintf("nodes in order: %v", assertion.Names),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Listing: g.String(),
			}
		}
	}

	return nil
}

// EvaluateAssertions evaluates all assertions against the result's graph.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertNodeCount:
			err = assertNodeCount(result.Graph, assertion)
		case AssertNodeExists:
			err = assertNodeExists(result.Graph, assertion)
		case AssertNodeOrder:
			err = assertNodeOrder(result.Graph, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
