package harness

import (
	"github.com/roach88/jirasearch/internal/rules"
	"github.com/roach88/jirasearch/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation and assertion held.
	Pass bool `json:"pass"`

	// JQL is the built query. Empty when the build failed.
	JQL string `json:"jql"`

	// ErrorCode is the build error code, if the build failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Trace holds the steps that changed pipeline state.
	Trace []rules.Step `json:"trace"`

	// Calls are the resolver lookups in arrival order.
	Calls []testutil.ResolveCall `json:"calls,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []rules.Step{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
