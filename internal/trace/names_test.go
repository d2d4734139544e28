package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symtrace/internal/ir"
)

// framed returns a tracer with an open frame.
func framed(t *testing.T) (*Base, *Frame, *ir.Graph) {
	t.Helper()
	tr, g := newTestTracer(t)
	f := NewFrame("forward")
	tr.EnterFrame(f)
	t.Cleanup(tr.ExitFrame)
	return tr, f, g
}

func TestFrameBindings(t *testing.T) {
	f := NewFrame("forward")
	f.Bind("a", 1).Bind("b", 2).Bind("a", 3)

	assert.Equal(t, "forward", f.Name())
	assert.Equal(t, []string{"a", "b"}, f.Names())

	v, ok := f.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = f.Lookup("missing")
	assert.False(t, ok)
}

func TestFriendlyNameFromFrame(t *testing.T) {
	tr, f, _ := framed(t)
	x := mustPlaceholder(t, tr, "x")
	f.Bind("x", x)

	h, err := x.Add(1)
	require.NoError(t, err)
	assert.Equal(t, "add", mustNode(t, h).Name(), "naming runs over operands, not results")
	f.Bind("h", h)

	out, err := h.Method("relu")
	require.NoError(t, err)

	assert.Equal(t, "h", mustNode(t, h).Name())
	assert.Equal(t, "relu", mustNode(t, out).Name())
	assert.Equal(t, "x", mustNode(t, x).Name())
}

func TestFriendlyNameTieBreak(t *testing.T) {
	tests := []struct {
		name     string
		bindings []string
		expected string
	}{
		{"shortest wins", []string{"longer_alias", "short"}, "short"},
		{"shortest wins regardless of order", []string{"short", "longer_alias"}, "short"},
		{"first bound wins on equal length", []string{"cd", "ab"}, "cd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, f, _ := framed(t)
			x := mustPlaceholder(t, tr, "x")
			h, err := x.Mul(2)
			require.NoError(t, err)
			for _, b := range tt.bindings {
				f.Bind(b, h)
			}

			_, err = h.Neg()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mustNode(t, h).Name())
		})
	}
}

func TestFriendlyNameIsUniquified(t *testing.T) {
	tr, f, g := framed(t)
	x := mustPlaceholder(t, tr, "x")
	h, err := x.Add(1)
	require.NoError(t, err)

	// "x" is taken by the placeholder, so the add node gets a fresh variant
	f.Bind("x", h)
	_, err = h.Neg()
	require.NoError(t, err)

	assert.Equal(t, "x", mustNode(t, x).Name())
	assert.Equal(t, "x_1", mustNode(t, h).Name())

	got, ok := g.Lookup("x_1")
	require.True(t, ok)
	assert.Same(t, mustNode(t, h), got)
}

func TestFriendlyNameMatchesIdentityOnly(t *testing.T) {
	tr, f, _ := framed(t)
	x := mustPlaceholder(t, tr, "x")
	h, err := x.Add(1)
	require.NoError(t, err)

	// Same node, different proxy: not the value being operated on
	f.Bind("alias", NewProxy(mustNode(t, h), tr))
	_, err = h.Neg()
	require.NoError(t, err)

	assert.Equal(t, "add", mustNode(t, h).Name())
}

func TestFriendlyNameWalksContainers(t *testing.T) {
	tr, f, _ := framed(t)
	x := mustPlaceholder(t, tr, "x")
	a, err := x.Add(1)
	require.NoError(t, err)
	b, err := x.Sub(1)
	require.NoError(t, err)
	c, err := x.Mul(1)
	require.NoError(t, err)
	d, err := x.Neg()
	require.NoError(t, err)
	f.Bind("a", a).Bind("b", b).Bind("c", c).Bind("d", d)

	_, err = x.Method("cat", List{a, Tuple{b}}, Slice{Stop: c})
	require.NoError(t, err)
	_, err = x.Field("pad").CallKw(Dict{KV("value", d)})
	require.NoError(t, err)

	assert.Equal(t, "a", mustNode(t, a).Name())
	assert.Equal(t, "b", mustNode(t, b).Name())
	assert.Equal(t, "c", mustNode(t, c).Name())
	assert.Equal(t, "d", mustNode(t, d).Name())
}

func TestFriendlyNameNeverMaterializes(t *testing.T) {
	tr, f, g := framed(t)
	x := mustPlaceholder(t, tr, "x")
	w := x.Field("weight")
	f.Bind("w", w)

	out, err := x.MatMul(w)
	require.NoError(t, err)

	// Naming runs before lowering, so the getattr node keeps its default name
	nodes := g.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, "getattr", nodes[1].Name())
	assert.Equal(t, "matmul", mustNode(t, out).Name())
}

func TestFriendlyNameSkippedWithoutFrame(t *testing.T) {
	tr, g := newTestTracer(t)
	x := mustPlaceholder(t, tr, "x")
	h, err := x.Add(1)
	require.NoError(t, err)

	f := NewFrame("detached")
	f.Bind("h", h)

	_, err = h.Neg()
	require.NoError(t, err)
	assert.Equal(t, "add", mustNode(t, h).Name())

	// After the frame is popped naming stops again
	tr.EnterFrame(f)
	tr.ExitFrame()
	_, err = h.Pos()
	require.NoError(t, err)
	assert.Equal(t, "add", mustNode(t, h).Name())
	assert.Equal(t, 4, g.Len())
}

func TestFriendlyNameOnlyTouchesNames(t *testing.T) {
	build := func(named bool) *ir.Graph {
		tr, g := newTestTracer(t)
		if named {
			f := NewFrame("forward")
			tr.EnterFrame(f)
			defer tr.ExitFrame()
			x := mustPlaceholder(t, tr, "x")
			f.Bind("x", x)
			h, err := x.Add(1)
			require.NoError(t, err)
			f.Bind("h", h)
			_, err = h.Method("relu")
			require.NoError(t, err)
			return g
		}
		x := mustPlaceholder(t, tr, "x")
		h, err := x.Add(1)
		require.NoError(t, err)
		_, err = h.Method("relu")
		require.NoError(t, err)
		return g
	}

	plain, named := build(false).Nodes(), build(true).Nodes()
	require.Len(t, named, len(plain))
	for i := range plain {
		assert.Equal(t, plain[i].Kind(), named[i].Kind())
		assert.Equal(t, plain[i].Target(), named[i].Target())
		assert.Equal(t, len(plain[i].Args()), len(named[i].Args()))
	}
	assert.Equal(t, "add", plain[1].Name())
	assert.Equal(t, "h", named[1].Name())
}
