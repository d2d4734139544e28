package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/symtrace/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// TypeSpec errors (E101-E109)
	ErrTypeNameInvalid  = "E101" // type name missing or malformed
	ErrTypeNoMembers    = "E102" // root type declares no methods or properties
	ErrMemberConflict   = "E103" // name is both a method and a property
	ErrInvalidMember    = "E104" // member name is not an identifier
	ErrDuplicateName    = "E105" // duplicate type or member name
	ErrUnknownExtends   = "E106" // extends names a type not in the catalog
	ErrExtendsCycle     = "E107" // extends relation loops
	ErrReservedProtocol = "E108" // member shadows a name the tracer records itself
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// typeNamePattern matches exported Go-style type names ("Tensor").
var typeNamePattern = regexp.MustCompile(`^[A-Z][a-zA-Z0-9_]*$`)

// memberNamePattern matches identifiers ("relu", "__add__", "T").
var memberNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedMembers are recorded by the tracer under fixed targets and cannot
// be redeclared as catalog members.
var reservedMembers = []string{ir.GetAttr.Name, string(ir.CallProtocol)}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports TypeSpec and whole catalogs ([]ir.TypeSpec).
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.TypeSpec:
		return validateTypeSpec(spec, "")
	case ir.TypeSpec:
		return validateTypeSpec(&spec, "")
	case []ir.TypeSpec:
		return validateCatalog(spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// validateTypeSpec validates one type. prefix qualifies field paths when
// the type is part of a catalog.
func validateTypeSpec(spec *ir.TypeSpec, prefix string) []ValidationError {
	var errs []ValidationError

	// E101: type name
	if !typeNamePattern.MatchString(spec.Name) {
		errs = append(errs, ValidationError{
			Field:   prefix + "name",
			Message: fmt.Sprintf("invalid type name %q, must start with an uppercase letter", spec.Name),
			Code:    ErrTypeNameInvalid,
		})
	}

	// E102: a root type must declare something
	if spec.Extends == "" && len(spec.Methods) == 0 && len(spec.Properties) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + "methods",
			Message: "at least one method or property is required",
			Code:    ErrTypeNoMembers,
		})
	}

	errs = append(errs, validateMembers(spec.Methods, prefix+"methods")...)
	errs = append(errs, validateMembers(spec.Properties, prefix+"properties")...)

	// E103: member declared twice with different roles
	for i, prop := range spec.Properties {
		if slices.Contains(spec.Methods, prop) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%sproperties[%d]", prefix, i),
				Message: fmt.Sprintf("%q is declared as both a method and a property", prop),
				Code:    ErrMemberConflict,
			})
		}
	}

	return errs
}

// validateMembers checks one member list for malformed, reserved and
// duplicate names.
func validateMembers(names []string, field string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for i, name := range names {
		path := fmt.Sprintf("%s[%d]", field, i)

		// E104: member must be an identifier
		if !memberNamePattern.MatchString(name) {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("invalid member name %q", name),
				Code:    ErrInvalidMember,
			})
		}

		// E108: names the tracer records itself
		if slices.Contains(reservedMembers, strings.ToLower(name)) {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("member %q is reserved by the tracer", name),
				Code:    ErrReservedProtocol,
			})
		}

		// E105: duplicate member
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("duplicate member name: %q", name),
				Code:    ErrDuplicateName,
			})
		}
		seen[name] = true
	}

	return errs
}

// validateCatalog validates every type plus the relations between them.
func validateCatalog(specs []ir.TypeSpec) []ValidationError {
	var errs []ValidationError
	names := make(map[string]bool)

	for i := range specs {
		spec := &specs[i]
		prefix := fmt.Sprintf("types[%d].", i)
		errs = append(errs, validateTypeSpec(spec, prefix)...)

		// E105: duplicate type name
		if names[spec.Name] {
			errs = append(errs, ValidationError{
				Field:   prefix + "name",
				Message: fmt.Sprintf("duplicate type name: %q", spec.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[spec.Name] = true
	}

	// E106: parents must exist
	for i, spec := range specs {
		if spec.Extends != "" && !names[spec.Extends] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("types[%d].extends", i),
				Message: fmt.Sprintf("type %q extends unknown type %q", spec.Name, spec.Extends),
				Code:    ErrUnknownExtends,
			})
		}
	}

	// E107: no loops
	for _, cycle := range AnalyzeExtends(specs) {
		errs = append(errs, ValidationError{
			Field:   "extends",
			Message: cycle.Message,
			Code:    ErrExtendsCycle,
		})
	}

	return errs
}
