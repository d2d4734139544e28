package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/symtrace/internal/compiler"
	"github.com/roach88/symtrace/internal/ir"
)

// LoadResult contains the catalog loaded from a directory.
type LoadResult struct {
	// Declared is the catalog as written, in declaration order.
	Declared []ir.TypeSpec
	// Resolved has every type's inherited members flattened in.
	Resolved  []ir.TypeSpec
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog loads every CUE file of dir as one instance, compiles its
// types, validates them and resolves inheritance. Validation collects all
// errors; loading and compilation stop at the first.
func LoadCatalog(dir string) (*LoadResult, []error) {
	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	// Find CUE files
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	// Load CUE instances
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	declared, err := compiler.CompileCatalog(value)
	if err != nil {
		return nil, []error{convertCompileError(err)}
	}
	if len(declared) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: "no types found in catalog"}}
	}

	result := &LoadResult{
		Declared:  declared,
		FileCount: len(cueFiles),
	}

	if verrs := compiler.Validate(declared); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = &LoadError{Code: v.Code, Message: fmt.Sprintf("%s: %s", v.Field, v.Message)}
		}
		return result, errs
	}

	resolved, err := compiler.ResolveCatalog(declared)
	if err != nil {
		return result, []error{convertCompileError(err)}
	}
	result.Resolved = resolved
	return result, nil
}

// FindCUEFiles returns the .cue files directly inside dir, matching what
// a CUE instance of that directory loads.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands. Catalog
// validation codes (E1xx) come from the compiler package unchanged.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeInvalidField = "E008" // Catalog field has the wrong shape
	ErrCodeScenario     = "E009" // Scenario failed to load
	ErrCodeStore        = "E010" // Graph store error

	ErrCodeTraceFailed = "E_TRACE_FAILED"
	ErrCodeTestFailed  = "E_TEST_FAILED"
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeBuildFailed
	case "doc", "extends", "methods", "properties":
		return ErrCodeInvalidField
	default:
		return ErrCodeGeneric
	}
}
