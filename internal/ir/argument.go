package ir

// Argument is a sealed interface representing the values a Node may hold in
// its args and kwargs.
// Only None, Bool, Int, Float, String, List, Tuple, Dict, Slice and *Node
// implement it. Anything else must be lowered by the tracer first.
type Argument interface {
	argument() // Sealed - only these types implement it
}

// None represents the null literal.
// Using an explicit type ensures every Argument satisfies the sealed interface.
type None struct{}

func (None) argument() {}

// Bool represents a boolean literal.
type Bool bool

func (Bool) argument() {}

// Int represents an integer literal. Every Go integer width lowers to Int.
type Int int64

func (Int) argument() {}

// Float represents a floating point literal.
type Float float64

func (Float) argument() {}

// String represents a string literal.
type String string

func (String) argument() {}

// List is an ordered sequence of arguments.
// List and Tuple are distinct so lowering preserves the sequence kind of the
// original value.
type List []Argument

func (List) argument() {}

// Tuple is an ordered, fixed sequence of arguments.
// Node.Args is always a Tuple.
type Tuple []Argument

func (Tuple) argument() {}

// Entry is a single key/value pair of a Dict.
type Entry struct {
	Key   string
	Value Argument
}

// Dict is a string-keyed mapping of arguments.
// Insertion order carries no meaning but is preserved for reproducibility.
type Dict []Entry

func (Dict) argument() {}

// Get returns the value stored under key.
func (d Dict) Get(key string) (Argument, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (d Dict) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

// Slice represents a start/stop/step triple. Each component is itself an
// Argument; an omitted component is None.
type Slice struct {
	Start Argument
	Stop  Argument
	Step  Argument
}

func (Slice) argument() {}

func (*Node) argument() {}

// E is a shorthand for Entry for ergonomic Dict construction.
// Example: Dict{E("dim", Int(1)), E("keepdim", Bool(true))}
func E(key string, value Argument) Entry {
	return Entry{Key: key, Value: value}
}

// WalkNodes calls fn for every node reference reachable from a, depth first
// and in argument order.
func WalkNodes(a Argument, fn func(*Node)) {
	switch v := a.(type) {
	case *Node:
		if v != nil {
			fn(v)
		}
	case List:
		for _, elem := range v {
			WalkNodes(elem, fn)
		}
	case Tuple:
		for _, elem := range v {
			WalkNodes(elem, fn)
		}
	case Dict:
		for _, e := range v {
			WalkNodes(e.Value, fn)
		}
	case Slice:
		WalkNodes(v.Start, fn)
		WalkNodes(v.Stop, fn)
		WalkNodes(v.Step, fn)
	}
}

// normalize replaces nil Arguments with None so a stored node never holds a
// nil interface.
func normalize(a Argument) Argument {
	switch v := a.(type) {
	case nil:
		return None{}
	case *Node:
		if v == nil {
			return None{}
		}
		return v
	case List:
		out := make(List, len(v))
		for i, elem := range v {
			out[i] = normalize(elem)
		}
		return out
	case Tuple:
		out := make(Tuple, len(v))
		for i, elem := range v {
			out[i] = normalize(elem)
		}
		return out
	case Dict:
		out := make(Dict, len(v))
		for i, e := range v {
			out[i] = Entry{Key: e.Key, Value: normalize(e.Value)}
		}
		return out
	case Slice:
		return Slice{Start: normalize(v.Start), Stop: normalize(v.Stop), Step: normalize(v.Step)}
	default:
		return a
	}
}
