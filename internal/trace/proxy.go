package trace

import (
	"iter"

	"github.com/roach88/symtrace/internal/ir"
)

// Proxy is a trace-time stand-in for a real value.
//
// A Proxy wraps exactly one node and the tracer that produced it. Several
// proxies may wrap the same node. Operations on a proxy record nodes
// instead of computing anything.
//
// A proxy returned by Field is the attribute variant: it holds a root proxy
// and an attribute name, and records its own getattr node only when Node is
// first called. The node is then memoized.
type Proxy struct {
	tracer Tracer
	node   *ir.Node

	// Attribute variant only.
	root *Proxy
	attr string
}

// Tracer returns the tracer that records this proxy's operations.
func (p *Proxy) Tracer() Tracer {
	return p.tracer
}

// IsAttribute reports whether p is a deferred attribute access.
func (p *Proxy) IsAttribute() bool {
	return p.root != nil
}

// Node returns the backing node.
//
// For an attribute proxy the first call records
// call_function builtin.getattr(root, name); later calls return the same node.
func (p *Proxy) Node() (*ir.Node, error) {
	if p.node != nil || p.root == nil {
		return p.node, nil
	}
	rec, err := CreateProxy(p.tracer, ir.KindCallFunction, ir.GetAttr, []any{p.root, p.attr}, nil, "", "")
	if err != nil {
		return nil, err
	}
	p.node = rec.node
	return p.node, nil
}

// Field returns a deferred attribute proxy for p.name. Nothing is recorded.
func (p *Proxy) Field(name string) *Proxy {
	return &Proxy{tracer: p.tracer, root: p, attr: name}
}

// Call records an invocation of p with positional arguments.
func (p *Proxy) Call(args ...any) (*Proxy, error) {
	return p.CallKw(nil, args...)
}

// CallKw records an invocation of p with keyword and positional arguments.
//
// A plain proxy records call_method "call" with args (p, args...).
// An attribute proxy records a single call_method <name> with args
// (root, args...) and never materializes its getattr node.
func (p *Proxy) CallKw(kwargs Dict, args ...any) (*Proxy, error) {
	if p.root != nil {
		operands := append([]any{p.root}, args...)
		assignFriendlyNames(p.tracer, Tuple(operands), kwargs)
		return CreateProxy(p.tracer, ir.KindCallMethod, ir.Name(p.attr), operands, kwargs, "", "")
	}
	operands := append([]any{p}, args...)
	assignFriendlyNames(p.tracer, Tuple(operands), kwargs)
	return CreateProxy(p.tracer, ir.KindCallMethod, ir.CallProtocol, operands, kwargs, "", "")
}

// Method records p.name(args...) as one call_method node.
func (p *Proxy) Method(name string, args ...any) (*Proxy, error) {
	return p.Field(name).Call(args...)
}

// Unpack is the fixed-arity destructuring of p into n values. It records n
// getitem nodes, p[0] through p[n-1], and does not consult the tracer's Iter.
func (p *Proxy) Unpack(n int) ([]*Proxy, error) {
	out := make([]*Proxy, 0, n)
	for i := range n {
		item, err := p.GetItem(i)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Iter iterates p through the tracer. The default tracer fails with a
// TraceError.
func (p *Proxy) Iter() (iter.Seq[*Proxy], error) {
	return p.tracer.Iter(p)
}

// Bool converts p to a concrete boolean through the tracer. The default
// tracer fails with a TraceError; this is where branching on a symbolic
// value is rejected.
func (p *Proxy) Bool() (bool, error) {
	return p.tracer.ToBool(p)
}

// Keys probes p for mapping keys through the tracer.
func (p *Proxy) Keys() (*Proxy, error) {
	return p.tracer.Keys(p)
}

// Dispatch records the overloaded operation fn over args and kwargs.
// The args are the full operand list; p is typically among them.
func (p *Proxy) Dispatch(fn ir.Function, args []any, kwargs Dict) (*Proxy, error) {
	return Dispatch(p.tracer, fn, args, kwargs)
}

// String renders "Proxy(name)", or "Attribute(root.name)" for a deferred
// attribute. It never records anything.
func (p *Proxy) String() string {
	if p.root != nil {
		return "Attribute(" + p.path() + ")"
	}
	return "Proxy(" + p.path() + ")"
}

func (p *Proxy) path() string {
	if p.root != nil {
		return p.root.path() + "." + p.attr
	}
	if p.node == nil {
		return "<nil>"
	}
	return p.node.Name()
}

// Dispatch records an operation routed through a value-level overload
// protocol. When the tracer declares a type catalog (MethodCatalog) that
// has fn.Name, the operation is recorded as call_method fn.Name; otherwise
// as call_function fn, named after the rendered function symbol.
func Dispatch(t Tracer, fn ir.Function, args []any, kwargs Dict) (*Proxy, error) {
	assignFriendlyNames(t, Tuple(args), kwargs)

	if c, ok := t.(MethodCatalog); ok && c.TypeSpec().Has(fn.Name) {
		return CreateProxy(t, ir.KindCallMethod, ir.Name(fn.Name), args, kwargs, "", "")
	}
	return CreateProxy(t, ir.KindCallFunction, fn, args, kwargs, t.Graph().RenderTarget(fn), "")
}
