package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a scenario result as stable text for golden comparison.
//
//	scenario: labels
//	input: "+a +b"
//	jql: "project IN (AAA) AND ..."
//	steps:
//	  when \+([a-zA-Z0-9]{2,}) consumed=[+a +b] captures=[a b] had_match=false
//	  ...
func Snapshot(scenario *Scenario, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenario.Name)
	fmt.Fprintf(&b, "input: %q\n", scenario.Input)
	if result.ErrorCode != "" {
		fmt.Fprintf(&b, "error: %s\n", result.ErrorCode)
	} else {
		fmt.Fprintf(&b, "jql: %q\n", result.JQL)
	}
	b.WriteString("steps:\n")
	for _, step := range result.Trace {
		fmt.Fprintf(&b, "  %s\n", step.String())
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
}
