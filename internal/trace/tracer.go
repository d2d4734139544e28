package trace

import (
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/roach88/symtrace/internal/ir"
)

// Tracer is the policy object that mediates node creation.
//
// Implementations usually embed *Base and override individual hooks. All
// recording goes through the package functions (CreateProxy, CreateArg,
// NewProxy), which call back into the Tracer they are given, so an override
// on the outer type is always honored.
type Tracer interface {
	// Graph returns the graph this tracer records into.
	Graph() *ir.Graph

	// CreateNode appends a node built from already-lowered arguments.
	// This is the single override point for trace-time validation, such as
	// rejecting operation kinds a specialized tracer does not allow.
	CreateNode(kind ir.Kind, target ir.Target, args ir.Tuple, kwargs ir.Dict, name, typeHint string) (*ir.Node, error)

	// ToBool is called when traced code needs a concrete boolean from p.
	ToBool(p *Proxy) (bool, error)

	// Iter is called when traced code iterates p without a known arity.
	Iter(p *Proxy) (iter.Seq[*Proxy], error)

	// Keys is called when traced code probes p for mapping keys, as
	// keyword-argument unpacking does.
	Keys(p *Proxy) (*Proxy, error)
}

// ArgLowerer is an optional Tracer extension for lowering extra value types.
// CreateArg consults it first at every level of the value. Returning
// handled=false falls back to the default lowering.
type ArgLowerer interface {
	LowerArg(v any) (arg ir.Argument, handled bool, err error)
}

// MethodCatalog is an optional Tracer extension declaring the methods and
// properties of the traced value type. Dispatch uses it to choose between
// call_method and call_function.
type MethodCatalog interface {
	TypeSpec() ir.TypeSpec
}

// FrameProvider is an optional Tracer extension exposing the named bindings
// of the traced function that is currently executing.
type FrameProvider interface {
	CurrentFrame() *Frame
}

// Base is the default tracer.
//
// CreateNode delegates to the graph without extra validation, ToBool and
// Iter fail with a TraceError, and Keys records a call_method "keys" node.
// Base also keeps the frame stack used for friendly names.
type Base struct {
	graph    *ir.Graph
	logger   *slog.Logger
	typeSpec ir.TypeSpec
	frames   []*Frame
}

// Option configures a Base tracer.
type Option func(*Base)

// WithLogger sets the logger used for debug output of recorded nodes.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithTypeSpec declares the method catalog of the traced value type.
func WithTypeSpec(spec ir.TypeSpec) Option {
	return func(b *Base) {
		b.typeSpec = spec
	}
}

// NewBase creates a tracer recording into g.
func NewBase(g *ir.Graph, opts ...Option) *Base {
	b := &Base{
		graph:  g,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewGraphAppendingTracer returns a default tracer over an existing graph.
// It lets graph transforms wrap raw nodes in proxies and keep appending with
// the overloaded operations.
func NewGraphAppendingTracer(g *ir.Graph) *Base {
	return NewBase(g)
}

// Graph implements Tracer.
func (b *Base) Graph() *ir.Graph {
	return b.graph
}

// CreateNode implements Tracer.
func (b *Base) CreateNode(kind ir.Kind, target ir.Target, args ir.Tuple, kwargs ir.Dict, name, typeHint string) (*ir.Node, error) {
	n, err := b.graph.CreateNode(kind, target, args, kwargs, name, typeHint)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("recorded node",
		"name", n.Name(),
		"kind", string(kind),
		"target", target.String(),
	)
	return n, nil
}

// ToBool implements Tracer. The default cannot know the value of a symbol.
func (b *Base) ToBool(p *Proxy) (bool, error) {
	return false, newControlFlowError(p)
}

// Iter implements Tracer. The default cannot know the length of a symbol.
func (b *Base) Iter(p *Proxy) (iter.Seq[*Proxy], error) {
	return nil, newIterationError(p)
}

// Keys implements Tracer by recording p.keys().
func (b *Base) Keys(p *Proxy) (*Proxy, error) {
	return p.Field("keys").Call()
}

// TypeSpec implements MethodCatalog.
func (b *Base) TypeSpec() ir.TypeSpec {
	return b.typeSpec
}

// Logger returns the tracer's logger.
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// EnterFrame makes f the innermost frame for friendly names.
func (b *Base) EnterFrame(f *Frame) {
	b.frames = append(b.frames, f)
}

// ExitFrame pops the innermost frame. It is a no-op without frames.
func (b *Base) ExitFrame() {
	if len(b.frames) > 0 {
		b.frames = b.frames[:len(b.frames)-1]
	}
}

// CurrentFrame implements FrameProvider. It returns nil outside any frame.
func (b *Base) CurrentFrame() *Frame {
	if len(b.frames) == 0 {
		return nil
	}
	return b.frames[len(b.frames)-1]
}

// NewProxy wraps an existing node in a proxy bound to t.
// A nil tracer yields a graph-appending tracer over the node's graph.
func NewProxy(node *ir.Node, t Tracer) *Proxy {
	if t == nil {
		t = NewGraphAppendingTracer(node.Graph())
	}
	return &Proxy{node: node, tracer: t}
}

// CreateProxy lowers args and kwargs, records one node through t.CreateNode
// and returns it wrapped in a proxy. The lowered args must be an ir.Tuple and
// the lowered kwargs an ir.Dict; an ArgLowerer that breaks that is an error.
func CreateProxy(t Tracer, kind ir.Kind, target ir.Target, args []any, kwargs Dict, name, typeHint string) (*Proxy, error) {
	loweredArgs, err := CreateArg(t, Tuple(args))
	if err != nil {
		return nil, err
	}
	tuple, ok := loweredArgs.(ir.Tuple)
	if !ok {
		return nil, fmt.Errorf("create proxy: lowered args are %T, want ir.Tuple", loweredArgs)
	}

	if kwargs == nil {
		kwargs = Dict{}
	}
	loweredKwargs, err := CreateArg(t, kwargs)
	if err != nil {
		return nil, err
	}
	dict, ok := loweredKwargs.(ir.Dict)
	if !ok {
		return nil, fmt.Errorf("create proxy: lowered kwargs are %T, want ir.Dict", loweredKwargs)
	}

	n, err := t.CreateNode(kind, target, tuple, dict, name, typeHint)
	if err != nil {
		return nil, err
	}
	return NewProxy(n, t), nil
}

// Placeholder records an input parameter named name. Defaults, if any, are
// recorded as the node's args.
func Placeholder(t Tracer, name string, defaults ...any) (*Proxy, error) {
	return CreateProxy(t, ir.KindPlaceholder, ir.Name(name), defaults, nil, name, "")
}

// Output records the traced function's result.
func Output(t Tracer, result any) (*ir.Node, error) {
	p, err := CreateProxy(t, ir.KindOutput, ir.Name("output"), []any{result}, nil, "output", "")
	if err != nil {
		return nil, err
	}
	return p.node, nil
}
