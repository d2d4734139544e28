package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/symtrace/internal/ir"
)

// CompileFiles compiles each CUE file on its own and concatenates the
// catalogs in argument order. Positions in errors carry the file name.
func CompileFiles(paths ...string) ([]ir.TypeSpec, error) {
	ctx := cuecontext.New()
	specs := []ir.TypeSpec{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		catalog, err := CompileCatalog(v)
		if err != nil {
			return nil, err
		}
		specs = append(specs, catalog...)
	}
	return specs, nil
}

// LoadResolved compiles paths, validates the combined catalog and flattens
// its inheritance. Validation failures are returned together as one error.
func LoadResolved(paths ...string) ([]ir.TypeSpec, error) {
	specs, err := CompileFiles(paths...)
	if err != nil {
		return nil, err
	}
	if errs := Validate(specs); len(errs) > 0 {
		return nil, &CatalogError{Errors: errs}
	}
	return ResolveCatalog(specs)
}

// CatalogError carries every validation error of a catalog.
type CatalogError struct {
	Errors []ValidationError
}

func (e *CatalogError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid catalog: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("invalid catalog: %s (and %d more)", e.Errors[0].Error(), len(e.Errors)-1)
}
