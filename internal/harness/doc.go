// Package harness runs query-builder scenarios described in YAML.
//
// A scenario fixes the input text, the default projects and the behavior
// of the name resolver, then states what the builder must produce.
//
// # Scenario Format
//
//	name: mixed_input
//	description: "Every rule group in one query"
//	input: "@me fix +backend ABC-12 #ABC"
//	projects: [AAA, BBB]
//	resolver: table            # table (default) or upper
//	users:
//	  anna: [acc-anna]
//	expect: 'project IN (ABC) AND ...'
//	contains:
//	  - "labels IN (backend)"
//	excludes:
//	  - "AAA"
//	assertions:
//	  - type: trace_contains
//	    op: remember_resolved
//	  - type: trace_order
//	    ops: [when, aggregate]
//	  - type: trace_count
//	    op: aggregate
//	    count: 3
//	  - type: resolver_calls
//	    count: 1
//
// Failures are expected with expect_error (RESOLVE_FAILED or CANCELED);
// resolver_error makes every lookup fail and canceled: true runs the build
// with an already cancelled context.
//
// # Deterministic Testing
//
// Resolvers are in-memory stubs (testutil.StubResolver), so a scenario
// produces the same query and step trace on every run. RunWithGolden
// compares that trace with testdata/golden/<name>.golden.
package harness
