package testutil

import (
	"context"
	"strings"
	"sync"
)

// ResolveCall records one FindUserIDsByExactName invocation.
type ResolveCall struct {
	Name       string
	MaxResults int
}

// StubResolver is an in-memory name resolver for tests.
//
// Lookups are answered from a table, or by upper-casing the fragment when
// created with NewUpperResolver. Every call is recorded.
//
// Thread-safety: all methods are safe for concurrent use.
type StubResolver struct {
	mu       sync.Mutex
	table    map[string][]string
	upper    bool
	err      error
	errFor   map[string]error
	block    bool
	calls    []ResolveCall
	inFlight int
	peak     int
}

// NewUpperResolver returns a resolver that maps every fragment to its
// upper-cased form, e.g. "john" -> ["JOHN"].
func NewUpperResolver() *StubResolver {
	return &StubResolver{upper: true}
}

// NewTableResolver returns a resolver answering from table.
// Unknown fragments resolve to no accounts.
func NewTableResolver(table map[string][]string) *StubResolver {
	copied := make(map[string][]string, len(table))
	for k, v := range table {
		copied[k] = append([]string(nil), v...)
	}
	return &StubResolver{table: copied}
}

// WithError makes every call fail with err.
func (r *StubResolver) WithError(err error) *StubResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	return r
}

// WithErrorFor makes calls for one fragment fail with err.
func (r *StubResolver) WithErrorFor(name string, err error) *StubResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errFor == nil {
		r.errFor = make(map[string]error)
	}
	r.errFor[name] = err
	return r
}

// Blocking makes every call wait until its context is done.
func (r *StubResolver) Blocking() *StubResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.block = true
	return r
}

// FindUserIDsByExactName implements jql.Resolver.
func (r *StubResolver) FindUserIDsByExactName(ctx context.Context, name string, maxResults int) ([]string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, ResolveCall{Name: name, MaxResults: maxResults})
	r.inFlight++
	if r.inFlight > r.peak {
		r.peak = r.inFlight
	}
	block := r.block
	err := r.err
	if e, ok := r.errFor[name]; ok {
		err = e
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if r.upper {
		return []string{strings.ToUpper(name)}, nil
	}
	return append([]string(nil), r.table[name]...), nil
}

// Calls returns a copy of the recorded calls in arrival order.
func (r *StubResolver) Calls() []ResolveCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ResolveCall(nil), r.calls...)
}

// CallCount returns how many calls were made for name.
func (r *StubResolver) CallCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// PeakConcurrency returns the highest number of simultaneous calls seen.
func (r *StubResolver) PeakConcurrency() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}

// Reset clears recorded calls.
func (r *StubResolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.peak = 0
}
