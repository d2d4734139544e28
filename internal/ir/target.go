package ir

// Kind identifies what a Node records.
type Kind string

// Node kinds.
const (
	// KindPlaceholder is an input parameter of the traced function.
	KindPlaceholder Kind = "placeholder"

	// KindCallFunction is a free-function or operator call. Target is a Function.
	KindCallFunction Kind = "call_function"

	// KindCallMethod is a method call on the first argument. Target is a Name.
	KindCallMethod Kind = "call_method"

	// KindGetAttr is an attribute read. Target is an attribute path Name.
	KindGetAttr Kind = "get_attr"

	// KindOutput is the traced function's result.
	KindOutput Kind = "output"
)

// ValidKinds defines allowed node kinds.
var ValidKinds = map[Kind]bool{
	KindPlaceholder:  true,
	KindCallFunction: true,
	KindCallMethod:   true,
	KindGetAttr:      true,
	KindOutput:       true,
}

// Valid reports whether k is one of the known node kinds.
func (k Kind) Valid() bool {
	return ValidKinds[k]
}

// Target is a sealed interface for the symbolic reference a Node invokes:
// a Function for call_function nodes, a Name for everything else.
type Target interface {
	target() // Sealed
	String() string
}

// Function is a free-function or operator symbol, e.g. operator.add.
type Function struct {
	Module string `json:"module,omitempty"`
	Name   string `json:"name"`
}

func (Function) target() {}

// String renders the qualified symbol ("operator.add", or "add" without a module).
func (f Function) String() string {
	if f.Module == "" {
		return f.Name
	}
	return f.Module + "." + f.Name
}

// Name is a method name, attribute path or placeholder name.
type Name string

func (Name) target() {}

// String returns the name itself.
func (n Name) String() string {
	return string(n)
}

// Well-known targets recorded by the tracer.
var (
	// GetAttr is the generic attribute-get operation: getattr(root, name).
	GetAttr = Function{Module: "builtin", Name: "getattr"}

	// CallProtocol is the method name recorded when a value itself is invoked.
	CallProtocol = Name("call")
)
