package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/symtrace/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestGraph records y = relu(x + 1.5, inplace=True); return (y, x).
func createTestGraph(t *testing.T) *ir.Graph {
	t.Helper()
	g := ir.New()
	x, err := g.CreateNode(ir.KindPlaceholder, ir.Name("x"), nil, nil, "x", "Tensor")
	require.NoError(t, err)
	add, err := g.CreateNode(ir.KindCallFunction, ir.Function{Module: "operator", Name: "add"},
		ir.Tuple{x, ir.Float(1.5)}, nil, "", "")
	require.NoError(t, err)
	y, err := g.CreateNode(ir.KindCallMethod, ir.Name("relu"),
		ir.Tuple{add}, ir.Dict{ir.E("inplace", ir.Bool(true))}, "y", "")
	require.NoError(t, err)
	_, err = g.CreateNode(ir.KindOutput, ir.Name("output"),
		ir.Tuple{ir.Tuple{y, x}}, nil, "output", "")
	require.NoError(t, err)
	return g
}
