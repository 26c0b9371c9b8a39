package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jirasearch/internal/rules"
)

func strPtr(s string) *string { return &s }

func TestRun_TestdataScenarios(t *testing.T) {
	files, err := FindScenarioFiles("testdata/scenarios", "")
	require.NoError(t, err)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ExpectMismatch(t *testing.T) {
	result, err := Run(context.Background(), &Scenario{
		Name:        "mismatch",
		Description: "wrong expectation",
		Input:       "!",
		Expect:      strPtr("statusCategory != Done"),
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, "statusCategory = Done", result.JQL)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "query mismatch")
}

func TestRun_ContainsAndExcludes(t *testing.T) {
	result, err := Run(context.Background(), &Scenario{
		Name:        "fragments",
		Description: "contains and excludes",
		Input:       "+ui",
		Contains:    []string{"labels IN (ui)", "issuekey"},
		Excludes:    []string{"statusCategory"},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `does not contain "issuekey"`)
	assert.Contains(t, result.Errors[1], `unexpectedly contains "statusCategory"`)
}

func TestRun_ResolverError(t *testing.T) {
	result, err := Run(context.Background(), &Scenario{
		Name:          "boom",
		Description:   "resolver fails",
		Input:         "@anna",
		ResolverError: "boom",
		ExpectError:   string(rules.ErrCodeResolveFailed),
	})
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, string(rules.ErrCodeResolveFailed), result.ErrorCode)
	assert.Empty(t, result.JQL)
	assert.Empty(t, result.Trace)
	require.Len(t, result.Calls, 1)
	assert.Equal(t, "anna", result.Calls[0].Name)
}

func TestRun_UnexpectedError(t *testing.T) {
	result, err := Run(context.Background(), &Scenario{
		Name:        "canceled",
		Description: "cancellation not expected",
		Input:       "@anna",
		Resolver:    ResolverUpper,
		Canceled:    true,
		Expect:      strPtr("assignee IN (ANNA)"),
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, string(rules.ErrCodeCanceled), result.ErrorCode)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected build error")
}

func TestRun_ErrorExpectedButBuilt(t *testing.T) {
	result, err := Run(context.Background(), &Scenario{
		Name:        "no-error",
		Description: "nothing to resolve",
		Input:       "fix",
		ExpectError: string(rules.ErrCodeResolveFailed),
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error RESOLVE_FAILED")
}

func TestRun_WrongErrorCode(t *testing.T) {
	result, err := Run(context.Background(), &Scenario{
		Name:          "wrong-code",
		Description:   "resolver error reported, cancellation expected",
		Input:         "@anna",
		ResolverError: "boom",
		ExpectError:   string(rules.ErrCodeCanceled),
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error CANCELED")
}

func TestRun_UpperResolver(t *testing.T) {
	result, err := Run(context.Background(), &Scenario{
		Name:        "upper",
		Description: "upper-case stub",
		Input:       "@anna @was:bob",
		Resolver:    ResolverUpper,
		Expect:      strPtr("statusCategory != Done AND assignee IN (ANNA) AND assignee WAS (BOB)"),
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Calls, 2)
}

func TestRun_UnknownResolver(t *testing.T) {
	_, err := Run(context.Background(), &Scenario{
		Name:        "bad",
		Description: "bypasses validation",
		Resolver:    "ldap",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown resolver "ldap"`)
}

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"labels", "mixed", "resolve_failure", "unconstrained"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
