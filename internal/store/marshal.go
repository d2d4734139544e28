package store

import (
	"fmt"

	"github.com/roach88/symtrace/internal/ir"
)

// nodeRow is the column form of one recorded node.
type nodeRow struct {
	Position int
	Name     string
	Kind     string
	Target   string
	Args     string
	Kwargs   string
	TypeHint string
}

// marshalNode converts a node to its canonical JSON columns.
// References inside args are written by name, so the row can only be read
// back once every earlier node of the graph has been restored.
func marshalNode(position int, n *ir.Node) (nodeRow, error) {
	target, err := ir.MarshalTarget(n.Target())
	if err != nil {
		return nodeRow{}, fmt.Errorf("marshal node %s: %w", n.Name(), err)
	}
	args, err := ir.MarshalArgument(n.Args())
	if err != nil {
		return nodeRow{}, fmt.Errorf("marshal node %s args: %w", n.Name(), err)
	}
	kwargs, err := ir.MarshalArgument(n.Kwargs())
	if err != nil {
		return nodeRow{}, fmt.Errorf("marshal node %s kwargs: %w", n.Name(), err)
	}
	return nodeRow{
		Position: position,
		Name:     n.Name(),
		Kind:     string(n.Kind()),
		Target:   string(target),
		Args:     string(args),
		Kwargs:   string(kwargs),
		TypeHint: n.TypeHint(),
	}, nil
}

// restoreNode appends a stored row to g.
func restoreNode(g *ir.Graph, row nodeRow) error {
	_, err := g.Restore(row.Name, ir.Kind(row.Kind), []byte(row.Target), []byte(row.Args), []byte(row.Kwargs), row.TypeHint)
	if err != nil {
		return fmt.Errorf("restore node %d (%s): %w", row.Position, row.Name, err)
	}
	return nil
}
