package rules

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentResolves bounds resolver calls issued by one RememberResolved step.
const maxConcurrentResolves = 4

// ResolveFunc maps a captured fragment to zero or more identifiers.
// It must honor ctx cancellation and be safe for concurrent use.
type ResolveFunc func(ctx context.Context, fragment string) ([]string, error)

// Formatter renders the accumulated memory as one clause.
type Formatter func(memory []string) string

// Pipeline is the state threaded through one query build.
//
// A Pipeline is used linearly by a single goroutine and discarded after
// Build. Every operator returns the receiver so rule groups read as a chain:
//
//	p.When(projectAll).Discard().
//		When(projectKey).Remember().
//		Aggregate(in("project")).
//		Else(defaultProjects)
type Pipeline struct {
	ctx       context.Context
	remaining []string
	parts     []string
	captures  orderedSet
	memory    orderedSet
	hadMatch  bool
	err       error
	trace     []Step
}

// New tokenizes input and starts a pipeline over the tokens.
// ctx is handed to every resolver call made by the pipeline.
func New(ctx context.Context, input string) *Pipeline {
	return FromTokens(ctx, Tokenize(input))
}

// FromTokens starts a pipeline over an already tokenized input.
func FromTokens(ctx context.Context, tokens []string) *Pipeline {
	remaining := make([]string, len(tokens))
	copy(remaining, tokens)
	return &Pipeline{ctx: ctx, remaining: remaining}
}

// When matches every remaining token against pattern.
//
// Matching tokens are removed from the pool whatever the later steps do
// with them. The captured values replace the previous capture set.
func (p *Pipeline) When(pattern *Pattern) *Pipeline {
	if p.err != nil {
		return p
	}
	p.captures.reset()

	kept := make([]string, 0, len(p.remaining))
	var consumed []string
	for _, token := range p.remaining {
		value, ok := pattern.Capture(token)
		if !ok {
			kept = append(kept, token)
			continue
		}
		consumed = append(consumed, token)
		p.captures.add(value)
	}
	p.remaining = kept

	if len(consumed) > 0 {
		p.record(Step{Op: OpWhen, Arg: pattern.String(), Consumed: consumed, Captures: p.captures.values()})
	}
	return p
}

// Discard drops the captures and marks the group as matched.
// Used for tokens that only suppress the group's default.
func (p *Pipeline) Discard() *Pipeline {
	if p.err != nil || p.captures.len() == 0 {
		return p
	}
	captures := p.captures.values()
	p.captures.reset()
	p.hadMatch = true
	p.record(Step{Op: OpDiscard, Captures: captures})
	return p
}

// Remember moves the captures into memory verbatim.
// It does not set had-match; the group's Aggregate does that.
func (p *Pipeline) Remember() *Pipeline {
	if p.err != nil || p.captures.len() == 0 {
		return p
	}
	captures := p.captures.values()
	p.memory.add(captures...)
	p.captures.reset()
	p.record(Step{Op: OpRemember, Captures: captures, Memory: p.memory.values()})
	return p
}

// RememberConstant inserts text into memory in place of the captures.
func (p *Pipeline) RememberConstant(text string) *Pipeline {
	if p.err != nil || p.captures.len() == 0 {
		return p
	}
	captures := p.captures.values()
	p.memory.add(text)
	p.captures.reset()
	p.record(Step{Op: OpRememberConstant, Arg: text, Captures: captures, Memory: p.memory.values()})
	return p
}

// RememberResolved resolves every distinct capture and inserts the union of
// the results into memory.
//
// Lookups run concurrently; results are merged in capture order so the
// memory is deterministic for deterministic resolvers. A capture that
// resolves to nothing contributes nothing. Any resolver error, or
// cancellation of the pipeline context, fails the whole build.
func (p *Pipeline) RememberResolved(resolve ResolveFunc) *Pipeline {
	if p.err != nil || p.captures.len() == 0 {
		return p
	}
	if err := p.ctx.Err(); err != nil {
		p.err = NewCanceledError(err)
		return p
	}

	fragments := p.captures.values()
	results := make([][]string, len(fragments))

	g, gctx := errgroup.WithContext(p.ctx)
	g.SetLimit(maxConcurrentResolves)
	for i, fragment := range fragments {
		g.Go(func() error {
			ids, err := resolve(gctx, fragment)
			if err != nil {
				return NewResolveError(fragment, err)
			}
			results[i] = ids
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.err = classify(p.ctx, err)
		return p
	}

	for _, ids := range results {
		p.memory.add(ids...)
	}
	p.captures.reset()
	p.record(Step{Op: OpRememberResolved, Captures: fragments, Memory: p.memory.values()})
	return p
}

// classify turns a resolver failure into a cancellation only when the
// build context itself is done. A resolver's own timeout stays a resolve
// failure.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewCanceledError(ctxErr)
	}
	return err
}

// Then appends text as a clause when the last When matched.
// Captures are left in place; the next When replaces them.
func (p *Pipeline) Then(text string) *Pipeline {
	if p.err != nil || p.captures.len() == 0 {
		return p
	}
	p.parts = append(p.parts, text)
	p.hadMatch = true
	p.record(Step{Op: OpThen, Arg: text, Captures: p.captures.values(), Emitted: emitted(text)})
	return p
}

// Aggregate renders the memory as one clause and clears it.
// With empty memory it is a no-op and leaves had-match untouched.
func (p *Pipeline) Aggregate(format Formatter) *Pipeline {
	if p.err != nil || p.memory.len() == 0 {
		return p
	}
	memory := p.memory.values()
	part := format(memory)
	p.parts = append(p.parts, part)
	p.memory.reset()
	p.hadMatch = true
	p.record(Step{Op: OpAggregate, Memory: memory, Emitted: emitted(part)})
	return p
}

// Else closes a rule group.
//
// If the group matched, the flag is reset and nothing is emitted.
// Otherwise text is appended (an empty default is dropped at assembly).
func (p *Pipeline) Else(text string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.hadMatch {
		p.hadMatch = false
		p.record(Step{Op: OpElse, Arg: text})
		return p
	}
	p.parts = append(p.parts, text)
	p.record(Step{Op: OpElse, Arg: text, Emitted: emitted(text)})
	return p
}

// Build assembles the emitted clauses into the final query.
// If any step failed, no partial query is returned.
func (p *Pipeline) Build() (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return Assemble(p.parts), nil
}

// Err returns the first failure recorded by the pipeline, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Remaining returns the tokens not consumed by any When step.
func (p *Pipeline) Remaining() []string {
	out := make([]string, len(p.remaining))
	copy(out, p.remaining)
	return out
}

// Parts returns the clauses emitted so far, blanks included.
func (p *Pipeline) Parts() []string {
	out := make([]string, len(p.parts))
	copy(out, p.parts)
	return out
}

// Captures returns the values captured by the most recent When.
func (p *Pipeline) Captures() []string {
	return p.captures.values()
}

// Memory returns the values pending aggregation.
func (p *Pipeline) Memory() []string {
	return p.memory.values()
}

// HadMatch reports whether the current rule group has matched.
func (p *Pipeline) HadMatch() bool {
	return p.hadMatch
}

// Trace returns the steps that changed state, in execution order.
func (p *Pipeline) Trace() []Step {
	out := make([]Step, len(p.trace))
	copy(out, p.trace)
	return out
}
