package trace

import (
	"slices"
)

// Frame is the set of named local bindings of a traced function.
//
// Go cannot inspect a caller's locals, so traced code that wants readable
// node names binds its proxies explicitly:
//
//	f := trace.NewFrame("forward")
//	tracer.EnterFrame(f)
//	defer tracer.ExitFrame()
//
//	h, _ := x.Add(1)
//	f.Bind("h", h)
//	out, _ := h.Method("relu") // the add node is renamed to "h"
//
// Bindings may hold any value; only proxies take part in naming.
type Frame struct {
	name     string
	bindings []binding
}

type binding struct {
	name  string
	value any
}

// NewFrame creates an empty frame. The name is informational.
func NewFrame(name string) *Frame {
	return &Frame{name: name}
}

// Name returns the frame's name.
func (f *Frame) Name() string {
	return f.name
}

// Bind sets a binding and returns the frame. Rebinding a name replaces its
// value and keeps its original position.
func (f *Frame) Bind(name string, value any) *Frame {
	for i := range f.bindings {
		if f.bindings[i].name == name {
			f.bindings[i].value = value
			return f
		}
	}
	f.bindings = append(f.bindings, binding{name: name, value: value})
	return f
}

// Lookup returns the value bound to name.
func (f *Frame) Lookup(name string) (any, bool) {
	for _, b := range f.bindings {
		if b.name == name {
			return b.value, true
		}
	}
	return nil, false
}

// Names returns the bound names in binding order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.bindings))
	for i, b := range f.bindings {
		names[i] = b.name
	}
	return names
}

// nameFor returns the shortest name bound to exactly p. Among names of equal
// length the one bound first wins.
func (f *Frame) nameFor(p *Proxy) (string, bool) {
	found := ""
	for _, b := range f.bindings {
		bp, ok := b.value.(*Proxy)
		if !ok || bp != p {
			continue
		}
		if found == "" || len(b.name) < len(found) {
			found = b.name
		}
	}
	return found, found != ""
}

// assignFriendlyNames renames the nodes of every proxy found in values after
// the binding that holds it in the tracer's current frame.
//
// Naming is cosmetic. It never records a node (attribute proxies that have
// not been materialized are skipped) and it does nothing when the tracer has
// no current frame.
func assignFriendlyNames(t Tracer, values ...any) {
	fp, ok := t.(FrameProvider)
	if !ok {
		return
	}
	frame := fp.CurrentFrame()
	if frame == nil {
		return
	}
	for _, v := range values {
		frame.assign(v)
	}
}

func (f *Frame) assign(v any) {
	switch x := v.(type) {
	case Tuple:
		for _, elem := range x {
			f.assign(elem)
		}
	case List:
		for _, elem := range x {
			f.assign(elem)
		}
	case []any:
		for _, elem := range x {
			f.assign(elem)
		}
	case Dict:
		for _, item := range x {
			f.assign(item.Value)
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			f.assign(x[k])
		}
	case Slice:
		f.assign(x.Start)
		f.assign(x.Stop)
		f.assign(x.Step)
	case *Proxy:
		if x == nil || x.node == nil {
			return
		}
		name, ok := f.nameFor(x)
		if !ok || name == x.node.Name() {
			return
		}
		// A failed rename only costs a readable name.
		_, _ = x.node.Graph().Rename(x.node, name)
	}
}
