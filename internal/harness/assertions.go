package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/jirasearch/internal/rules"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []rules.Step // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, step := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, step.String())
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertResolverCalls:
			err = assertResolverCalls(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceContains checks that some step has the op (and arg, if given).
func assertTraceContains(trace []rules.Step, a Assertion) error {
	for _, step := range trace {
		if step.Op == a.Op && (a.Arg == "" || step.Arg == a.Arg) {
			return nil
		}
	}

	expected := "op " + a.Op
	if a.Arg != "" {
		expected += fmt.Sprintf(" with arg %q", a.Arg)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the ops appear in order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []rules.Step, a Assertion) error {
	next := 0
	for _, step := range trace {
		if next < len(a.Ops) && step.Op == a.Ops[next] {
			next++
		}
	}
	if next == len(a.Ops) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("ops in order %v", a.Ops),
		Actual:   fmt.Sprintf("matched %v, missing %q", a.Ops[:next], a.Ops[next]),
		Trace:    trace,
	}
}

// assertTraceCount checks that the op appears exactly Count times.
func assertTraceCount(trace []rules.Step, a Assertion) error {
	count := 0
	for _, step := range trace {
		if step.Op == a.Op {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("op %s %d time(s)", a.Op, a.Count),
		Actual:   fmt.Sprintf("%d time(s)", count),
		Trace:    trace,
	}
}

// assertResolverCalls checks the total number of resolver lookups.
func assertResolverCalls(result *Result, a Assertion) error {
	if len(result.Calls) == a.Count {
		return nil
	}

	names := make([]string, len(result.Calls))
	for i, c := range result.Calls {
		names[i] = c.Name
	}
	return &AssertionError{
		Type:     AssertResolverCalls,
		Expected: fmt.Sprintf("%d call(s)", a.Count),
		Actual:   fmt.Sprintf("%d call(s) %v", len(result.Calls), names),
		Trace:    result.Trace,
	}
}
