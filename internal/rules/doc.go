// Package rules implements the token-rule pipeline that turns free-text
// search input into query clauses.
//
// ARCHITECTURE:
//
// A Pipeline is created once per request from the tokenized input and is
// driven through a fixed chain of operators:
//
//	[input] → Tokenize → When/Remember/Then/Aggregate/Else ... → Build → [query]
//
// The pipeline holds five pieces of state:
//   - remaining tokens: not yet consumed by any When step
//   - parts: emitted clauses, in emission order
//   - captures: values captured by the most recent When step
//   - memory: captures accumulated for the clause currently being built
//   - had-match: set once a step of the current rule group produced output
//
// A rule group is a run of When steps followed by one Else step. Else emits
// the group's default clause only when nothing in the group matched.
//
// INVARIANTS:
//
// Token partitioning: a token removed by When is never seen by a later
// step. Matching is anchored to the whole token, never a substring.
//
// Determinism: operators run in call order and resolver results are merged
// in capture order, so identical input and resolver answers produce an
// identical query.
//
// Failure: no operator fails on unmatched input. Only RememberResolved can
// fail (resolver error or cancellation). The first failure is kept, every
// later operator becomes a no-op, and Build returns the error with no
// partial query.
package rules
