package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/symtrace/internal/ir"
)

// CompileType parses a CUE value into a TypeSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the type struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`type: Tensor: { methods: ["relu", "view"] }`)
//	spec, err := CompileType(v.LookupPath(cue.ParsePath("type.Tensor")))
func CompileType(v cue.Value) (*ir.TypeSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.TypeSpec{}

	// Type name comes from the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	spec.Doc, err = optionalString(v, "doc")
	if err != nil {
		return nil, err
	}
	spec.Extends, err = optionalString(v, "extends")
	if err != nil {
		return nil, err
	}

	spec.Methods, err = parseNameList(v, "methods")
	if err != nil {
		return nil, err
	}
	spec.Properties, err = parseNameList(v, "properties")
	if err != nil {
		return nil, err
	}

	// A derived type may add nothing of its own; a root type must declare members
	if spec.Extends == "" && len(spec.Methods) == 0 && len(spec.Properties) == 0 {
		return nil, &CompileError{
			Field:   "methods",
			Message: "at least one method or property is required",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// CompileCatalog compiles every type under the top-level "type" field, in
// declaration order. A value without a "type" field yields an empty catalog.
func CompileCatalog(v cue.Value) ([]ir.TypeSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	specs := []ir.TypeSpec{}
	typesVal := v.LookupPath(cue.ParsePath("type"))
	if !typesVal.Exists() {
		return specs, nil
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		spec, err := CompileType(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// optionalString reads a string field, returning "" when it is absent.
func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a string", field),
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// parseNameList reads a list of strings. An absent field is an empty list.
func parseNameList(v cue.Value, field string) ([]string, error) {
	names := []string{}

	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return names, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a list of names", field),
			Pos:     listVal.Pos(),
		}
	}
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("%s entries must be strings", field),
				Pos:     iter.Value().Pos(),
			}
		}
		names = append(names, name)
	}
	return names, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
