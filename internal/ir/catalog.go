package ir

import "slices"

// TypeSpec declares the methods and properties of the value type a trace
// stands in for. The tracer consults it to decide whether a generic
// overloaded operation records call_method (a known member) or
// call_function (anything else).
//
// Extends names a parent type whose members are inherited once a catalog is
// resolved. A resolved TypeSpec has Extends cleared and carries the full
// member list.
type TypeSpec struct {
	Name       string   `json:"name"`
	Doc        string   `json:"doc,omitempty"`
	Extends    string   `json:"extends,omitempty"`
	Methods    []string `json:"methods"`
	Properties []string `json:"properties,omitempty"`
}

// Has reports whether name is a declared method or property.
func (s TypeSpec) Has(name string) bool {
	return slices.Contains(s.Methods, name) || slices.Contains(s.Properties, name)
}
