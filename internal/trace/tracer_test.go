package trace

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symtrace/internal/ir"
)

// newTestTracer returns a fresh base tracer and its graph.
func newTestTracer(t *testing.T, opts ...Option) (*Base, *ir.Graph) {
	t.Helper()
	g := ir.New()
	return NewBase(g, opts...), g
}

// mustPlaceholder records an input named name.
func mustPlaceholder(t *testing.T, tr Tracer, name string) *Proxy {
	t.Helper()
	p, err := Placeholder(tr, name)
	require.NoError(t, err)
	return p
}

// mustNode returns the backing node of p.
func mustNode(t *testing.T, p *Proxy) *ir.Node {
	t.Helper()
	n, err := p.Node()
	require.NoError(t, err)
	return n
}

// rejectingTracer refuses to record call_method nodes.
type rejectingTracer struct {
	*Base
}

func (r *rejectingTracer) CreateNode(kind ir.Kind, target ir.Target, args ir.Tuple, kwargs ir.Dict, name, typeHint string) (*ir.Node, error) {
	if kind == ir.KindCallMethod {
		return nil, errors.New("call_method is not allowed")
	}
	return r.Base.CreateNode(kind, target, args, kwargs, name, typeHint)
}

// listLowerer lowers every Tuple to a List, which CreateProxy must refuse.
type listLowerer struct {
	*Base
}

func (l *listLowerer) LowerArg(v any) (ir.Argument, bool, error) {
	if _, ok := v.(Tuple); ok {
		return ir.List{}, true, nil
	}
	return nil, false, nil
}

func TestPlaceholder(t *testing.T) {
	tr, g := newTestTracer(t)

	x := mustPlaceholder(t, tr, "x")
	y, err := Placeholder(tr, "y", 3)
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	xn := mustNode(t, x)
	assert.Equal(t, "x", xn.Name())
	assert.Equal(t, ir.KindPlaceholder, xn.Kind())
	assert.Equal(t, ir.Name("x"), xn.Target())
	assert.Empty(t, xn.Args())

	assert.Equal(t, ir.Tuple{ir.Int(3)}, mustNode(t, y).Args())
	assert.Equal(t, []*ir.Node{xn, mustNode(t, y)}, g.Placeholders())
}

func TestOutput(t *testing.T) {
	tr, _ := newTestTracer(t)
	x := mustPlaceholder(t, tr, "x")
	y := mustPlaceholder(t, tr, "y")

	out, err := Output(tr, Tuple{x, y})
	require.NoError(t, err)

	assert.Equal(t, ir.KindOutput, out.Kind())
	assert.Equal(t, "output", out.Name())
	assert.Equal(t, ir.Tuple{ir.Tuple{mustNode(t, x), mustNode(t, y)}}, out.Args())
}

func TestCreateProxyLowersArguments(t *testing.T) {
	tr, g := newTestTracer(t)
	x := mustPlaceholder(t, tr, "x")

	p, err := CreateProxy(tr, ir.KindCallMethod, ir.Name("view"),
		[]any{x, List{2, -1}}, Dict{KV("out", nil)}, "", "Tensor")
	require.NoError(t, err)

	n := mustNode(t, p)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, "view", n.Name())
	assert.Equal(t, "Tensor", n.TypeHint())
	assert.Equal(t, ir.Tuple{mustNode(t, x), ir.List{ir.Int(2), ir.Int(-1)}}, n.Args())
	assert.Equal(t, ir.Dict{ir.E("out", ir.None{})}, n.Kwargs())
	assert.Same(t, tr, p.Tracer())
}

func TestCreateProxyRejectsMisshapenLowering(t *testing.T) {
	g := ir.New()
	tr := &listLowerer{Base: NewBase(g)}

	_, err := CreateProxy(tr, ir.KindPlaceholder, ir.Name("x"), nil, nil, "x", "")
	assert.ErrorContains(t, err, "want ir.Tuple")
	assert.Equal(t, 0, g.Len())
}

func TestCreateNodeOverrideIsHonored(t *testing.T) {
	g := ir.New()
	tr := &rejectingTracer{Base: NewBase(g)}
	x := mustPlaceholder(t, tr, "x")

	_, err := x.Method("relu")
	assert.ErrorContains(t, err, "call_method is not allowed")

	// The default Keys hook records a method call, so it goes through the override too
	_, err = x.Keys()
	assert.ErrorContains(t, err, "call_method is not allowed")

	_, err = x.Add(1)
	assert.NoError(t, err)
	assert.Equal(t, 2, g.Len())
}

func TestBaseLogsRecordedNodes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tr, _ := newTestTracer(t, WithLogger(logger))

	x := mustPlaceholder(t, tr, "x")
	_, err := x.Add(1)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "recorded node")
	assert.Contains(t, out, "name=add")
	assert.Contains(t, out, "target=operator.add")
	assert.Same(t, logger, tr.Logger())
}

func TestWithLoggerIgnoresNil(t *testing.T) {
	tr, _ := newTestTracer(t, WithLogger(nil))
	assert.NotNil(t, tr.Logger())
}

func TestFrameStack(t *testing.T) {
	tr, _ := newTestTracer(t)
	assert.Nil(t, tr.CurrentFrame())

	outer := NewFrame("outer")
	inner := NewFrame("inner")
	tr.EnterFrame(outer)
	tr.EnterFrame(inner)
	assert.Same(t, inner, tr.CurrentFrame())

	tr.ExitFrame()
	assert.Same(t, outer, tr.CurrentFrame())

	tr.ExitFrame()
	tr.ExitFrame()
	assert.Nil(t, tr.CurrentFrame())
}

func TestNewProxyWithoutTracer(t *testing.T) {
	g := ir.New()
	n, err := g.CreateNode(ir.KindPlaceholder, ir.Name("x"), nil, nil, "x", "")
	require.NoError(t, err)

	p := NewProxy(n, nil)
	require.NotNil(t, p.Tracer())
	assert.Same(t, g, p.Tracer().Graph())

	sum, err := p.Add(1)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, ir.Tuple{n, ir.Int(1)}, mustNode(t, sum).Args())
}

func TestErrorTaxonomy(t *testing.T) {
	tr, _ := newTestTracer(t)
	x := mustPlaceholder(t, tr, "x")

	_, err := x.Bool()
	require.Error(t, err)
	assert.True(t, IsTraceError(err))
	assert.True(t, errors.Is(err, ErrInvalidValue))
	assert.False(t, IsUnsupportedArgument(err))
	assert.Equal(t, "symbolically traced variables cannot be used as inputs to control flow (bool on Proxy(x))", err.Error())

	_, err = CreateArg(tr, struct{}{})
	require.Error(t, err)
	assert.True(t, IsUnsupportedArgument(err))
	assert.False(t, IsTraceError(err))
	assert.Equal(t, "unsupported argument: argument of type: struct {}", err.Error())

	wrapped := errors.Join(errors.New("step 3"), err)
	assert.True(t, IsUnsupportedArgument(wrapped))
}
