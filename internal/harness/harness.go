package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/jirasearch/internal/jql"
	"github.com/roach88/jirasearch/internal/rules"
	"github.com/roach88/jirasearch/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create the stub resolver described by the scenario
// 2. Build the query with the step trace (jql.Builder.Explain)
// 3. Check expect / expect_error, contains / excludes
// 4. Evaluate assertions against the trace and resolver calls
//
// The returned error is reserved for scenarios that cannot run at all;
// expectation failures are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	resolver, err := newResolver(scenario)
	if err != nil {
		return nil, err
	}

	builder := jql.NewBuilder(resolver,
		jql.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	if scenario.Canceled {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		cancel()
	}

	result := NewResult()
	explanation, buildErr := builder.Explain(ctx, scenario.Input, scenario.Projects)
	result.Calls = resolver.Calls()

	if buildErr != nil {
		result.ErrorCode = errorCode(buildErr)
		checkError(scenario, result, buildErr)
		for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
			result.AddError(msg)
		}
		return result, nil
	}

	result.JQL = explanation.JQL
	result.Trace = explanation.Steps

	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected error %s, got query %q", scenario.ExpectError, result.JQL))
	}
	if scenario.Expect != nil && *scenario.Expect != result.JQL {
		result.AddError(fmt.Sprintf("query mismatch:\n  expected: %q\n  actual:   %q", *scenario.Expect, result.JQL))
	}
	for _, fragment := range scenario.Contains {
		if !strings.Contains(result.JQL, fragment) {
			result.AddError(fmt.Sprintf("query %q does not contain %q", result.JQL, fragment))
		}
	}
	for _, fragment := range scenario.Excludes {
		if strings.Contains(result.JQL, fragment) {
			result.AddError(fmt.Sprintf("query %q unexpectedly contains %q", result.JQL, fragment))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func newResolver(s *Scenario) (*testutil.StubResolver, error) {
	var r *testutil.StubResolver
	switch s.Resolver {
	case ResolverUpper:
		r = testutil.NewUpperResolver()
	case "", ResolverTable:
		r = testutil.NewTableResolver(s.Users)
	default:
		return nil, fmt.Errorf("unknown resolver %q", s.Resolver)
	}
	if s.ResolverError != "" {
		r.WithError(errors.New(s.ResolverError))
	}
	return r, nil
}

func checkError(s *Scenario, result *Result, err error) {
	if s.ExpectError == "" {
		result.AddError(fmt.Sprintf("unexpected build error: %v", err))
		return
	}
	if result.ErrorCode != s.ExpectError {
		result.AddError(fmt.Sprintf("expected error %s, got %v", s.ExpectError, err))
	}
}

func errorCode(err error) string {
	var be *rules.BuildError
	if errors.As(err, &be) {
		return string(be.Code)
	}
	return "UNKNOWN"
}
