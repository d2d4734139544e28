package harness

import "github.com/roach88/symtrace/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expected error occurred and
	// every assertion held.
	Pass bool `json:"pass"`

	// Graph is the traced graph. It is left as recorded even when a step
	// failed part way through.
	Graph *ir.Graph `json:"-"`

	// Hash is the content hash of Graph.
	Hash string `json:"hash,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
