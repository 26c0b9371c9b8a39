package rules

import (
	"context"
	"errors"
	"fmt"
)

// BuildError represents a failure that aborted a pipeline build.
//
// Build errors come from exactly two places:
//   - Resolver failure: a name lookup returned an error
//   - Cancellation: the build's context was cancelled or timed out
//
// Unmatched input is never an error.
type BuildError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Fragment is the captured value being resolved, if any.
	Fragment string

	// Err is the underlying error (resolver error or ctx.Err()).
	Err error
}

// ErrorCode categorizes build errors.
type ErrorCode string

const (
	// ErrCodeResolveFailed indicates the name resolver reported an error.
	ErrCodeResolveFailed ErrorCode = "RESOLVE_FAILED"

	// ErrCodeCanceled indicates the build was cancelled or timed out.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Fragment != "" {
		msg = fmt.Sprintf("%s (fragment=%q)", msg, e.Fragment)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// IsCanceled reports whether err is a cancellation of a build.
// Bare context.Canceled and context.DeadlineExceeded also count, unless
// they are wrapped by a resolve failure.
func IsCanceled(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeCanceled
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsResolveError reports whether err is a resolver failure.
func IsResolveError(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeResolveFailed
	}
	return false
}

// NewCanceledError creates a BuildError for a cancelled build.
func NewCanceledError(cause error) *BuildError {
	return &BuildError{
		Code:    ErrCodeCanceled,
		Message: "build aborted",
		Err:     cause,
	}
}

// NewResolveError creates a BuildError for a failed name resolution.
func NewResolveError(fragment string, cause error) *BuildError {
	return &BuildError{
		Code:     ErrCodeResolveFailed,
		Message:  "name resolution failed",
		Fragment: fragment,
		Err:      cause,
	}
}
