package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/jirasearch/internal/rules"
)

// Scenario defines one query-builder test case.
type Scenario struct {
	// Name uniquely identifies this scenario (also the golden file name).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the search text. Empty input is valid.
	Input string `yaml:"input"`

	// Projects are the default project keys.
	Projects []string `yaml:"projects,omitempty"`

	// Resolver selects the stub: "table" (default) answers from Users,
	// "upper" resolves every name to its upper-cased form.
	Resolver string `yaml:"resolver,omitempty"`

	// Users maps name fragments to account ids for the table resolver.
	Users map[string][]string `yaml:"users,omitempty"`

	// ResolverError makes every lookup fail with this message.
	ResolverError string `yaml:"resolver_error,omitempty"`

	// Canceled runs the build with an already cancelled context.
	Canceled bool `yaml:"canceled,omitempty"`

	// Expect is the exact expected query. A pointer so that an empty
	// (unconstrained) query can be expected explicitly.
	Expect *string `yaml:"expect,omitempty"`

	// ExpectError is the expected build error code.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Contains lists fragments the query must contain.
	Contains []string `yaml:"contains,omitempty"`

	// Excludes lists fragments the query must not contain.
	Excludes []string `yaml:"excludes,omitempty"`

	// Assertions validate the step trace and resolver usage.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates the step trace or the resolver calls.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count,
	// resolver_calls.
	Type string `yaml:"type"`

	// Op is the operator name (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Arg optionally narrows trace_contains to steps with this argument.
	Arg string `yaml:"arg,omitempty"`

	// Ops is the expected operator order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of occurrences (trace_count,
	// resolver_calls).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertResolverCalls = "resolver_calls"
)

// Resolver kinds.
const (
	ResolverTable = "table"
	ResolverUpper = "upper"
)

var knownOps = map[string]bool{
	rules.OpWhen:             true,
	rules.OpDiscard:          true,
	rules.OpRemember:         true,
	rules.OpRememberConstant: true,
	rules.OpRememberResolved: true,
	rules.OpThen:             true,
	rules.OpAggregate:        true,
	rules.OpElse:             true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarioFiles returns the .yaml and .yml files under dir whose base
// name (without extension) matches filter. An empty filter matches all.
// Results are sorted.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Resolver {
	case "", ResolverTable, ResolverUpper:
	default:
		return fmt.Errorf("unknown resolver %q", s.Resolver)
	}

	if s.Resolver == ResolverUpper && len(s.Users) > 0 {
		return fmt.Errorf("users table is only used by the table resolver")
	}

	if s.Expect != nil && s.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}

	switch s.ExpectError {
	case "", string(rules.ErrCodeResolveFailed), string(rules.ErrCodeCanceled):
	default:
		return fmt.Errorf("unknown expect_error code %q", s.ExpectError)
	}

	if s.Expect == nil && s.ExpectError == "" && len(s.Contains) == 0 &&
		len(s.Excludes) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one of expect, expect_error, contains, excludes or assertions is required")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if !knownOps[a.Op] {
			return fmt.Errorf("assertions[%d]: unknown op %q for trace_contains", index, a.Op)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
		for _, op := range a.Ops {
			if !knownOps[op] {
				return fmt.Errorf("assertions[%d]: unknown op %q for trace_order", index, op)
			}
		}
	case AssertTraceCount:
		if !knownOps[a.Op] {
			return fmt.Errorf("assertions[%d]: unknown op %q for trace_count", index, a.Op)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertResolverCalls:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for resolver_calls", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
