// Package jql builds JQL queries from free-text search input.
//
// The Builder runs a fixed sequence of rule groups over one rules.Pipeline:
//
//  1. project      #all, #KEY              → project IN (...) or the default projects
//  2. status       !, *                    → statusCategory = Done | != Done
//  3. assignee     @free, @me, @name       → assignee IS EMPTY, assignee IN (...)
//  4. labels       +label                  → labels IN (...)
//  5. issue keys   ABC-123                 → issuekey IN (...)
//  6. reporter     @reporter:me|name       → reporter IN (...)
//  7. was assignee @was:me|name            → assignee WAS (...)
//  8. free text    anything left           → (summary ~ "..." OR text ~ "...")
//
// A token consumed by an earlier group is invisible to later groups, so the
// order above is part of the output contract.
package jql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/jirasearch/internal/rules"
)

const tracerName = "jirasearch.jql"

// ResolveLimit is the maximum number of accounts requested per name.
const ResolveLimit = 5

// CurrentUser is the JQL function inserted for "me" filters.
const CurrentUser = "currentUser()"

// Resolver turns a display-name fragment into account ids.
//
// Implementations must be safe for concurrent use and honor ctx
// cancellation. A fragment with no exact match returns an empty slice and
// a nil error.
type Resolver interface {
	FindUserIDsByExactName(ctx context.Context, name string, maxResults int) ([]string, error)
}

var (
	projectAll   = rules.MustCompile(`#all`)
	projectKey   = rules.MustCompile(`#([a-zA-Z0-9]{2,})`)
	statusDone   = rules.MustCompile(`!`)
	statusAny    = rules.MustCompile(`\*`)
	assigneeFree = rules.MustCompile(`@free`)
	assigneeMe   = rules.MustCompile(`@me`)
	assigneeName = rules.MustCompile(`@([\p{L}-]{2,})`)
	labelName    = rules.MustCompile(`\+([a-zA-Z0-9]{2,})`)
	issueKey     = rules.MustCompile(`[A-Z][A-Z0-9]+-\d+`)
	reporterMe   = rules.MustCompile(`@reporter:me`)
	reporterName = rules.MustCompile(`@reporter:([\p{L}-]{2,})`)
	wasMe        = rules.MustCompile(`@was:me`)
	wasName      = rules.MustCompile(`@was:([\p{L}-]{2,})`)
	freeText     = rules.MustCompile(`.*`)
)

// Builder converts search text into JQL.
// A Builder holds no per-request state and is safe for concurrent use.
type Builder struct {
	resolver Resolver
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder backed by resolver.
func NewBuilder(resolver Resolver, opts ...Option) *Builder {
	b := &Builder{
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildTextJQL converts text into a JQL query.
//
// projects are the default project keys used when the text names none.
// The result is empty when no clause applies (unconstrained search).
// Errors are *rules.BuildError: a resolver failure or cancellation of ctx.
func (b *Builder) BuildTextJQL(ctx context.Context, text string, projects []string) (string, error) {
	explanation, err := b.Explain(ctx, text, projects)
	if err != nil {
		return "", err
	}
	return explanation.JQL, nil
}

// Explanation describes how a query was derived from its input.
type Explanation struct {
	BuildID   string       `json:"build_id"`
	Input     string       `json:"input"`
	Tokens    []string     `json:"tokens"`
	Steps     []rules.Step `json:"steps"`
	Parts     []string     `json:"parts"`
	Remaining []string     `json:"remaining,omitempty"`
	JQL       string       `json:"jql"`
}

// Explain runs the same rule chain as BuildTextJQL and returns the step
// trace alongside the query.
func (b *Builder) Explain(ctx context.Context, text string, projects []string) (*Explanation, error) {
	tokens := rules.Tokenize(text)
	buildID := uuid.NewString()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "jql.Builder.Explain",
		trace.WithAttributes(
			attribute.String("build_id", buildID),
			attribute.Int("token_count", len(tokens)),
			attribute.Int("default_project_count", len(projects)),
		),
	)
	defer span.End()

	logger := b.logger.With("build_id", buildID)

	p := b.run(rules.FromTokens(ctx, tokens), projects)
	query, err := p.Build()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("query build failed",
			"error", err,
			"canceled", rules.IsCanceled(err),
		)
		return nil, err
	}

	logger.Debug("query built",
		"input", text,
		"jql", query,
		"steps", len(p.Trace()),
	)

	return &Explanation{
		BuildID:   buildID,
		Input:     text,
		Tokens:    tokens,
		Steps:     p.Trace(),
		Parts:     p.Parts(),
		Remaining: p.Remaining(),
		JQL:       query,
	}, nil
}

// run applies the rule groups in their fixed order.
func (b *Builder) run(p *rules.Pipeline, projects []string) *rules.Pipeline {
	return p.
		When(projectAll).Discard().
		When(projectKey).Remember().
		Aggregate(in("project", "IN")).
		Else(defaultProjects(projects)).
		When(statusDone).Then("statusCategory = Done").
		When(statusAny).Discard().
		Else("statusCategory != Done").
		When(assigneeFree).Then("assignee IS EMPTY").
		When(assigneeMe).RememberConstant(CurrentUser).
		When(assigneeName).RememberResolved(b.resolve).
		Aggregate(in("assignee", "IN")).
		When(labelName).Remember().
		Aggregate(in("labels", "IN")).
		When(issueKey).Remember().
		Aggregate(in("issuekey", "IN")).
		When(reporterMe).RememberConstant(CurrentUser).
		When(reporterName).RememberResolved(b.resolve).
		Aggregate(in("reporter", "IN")).
		When(wasMe).RememberConstant(CurrentUser).
		When(wasName).RememberResolved(b.resolve).
		Aggregate(in("assignee", "WAS")).
		When(freeText).Remember().
		Aggregate(textSearch)
}

func (b *Builder) resolve(ctx context.Context, fragment string) ([]string, error) {
	ids, err := b.resolver.FindUserIDsByExactName(ctx, fragment, ResolveLimit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		b.logger.Debug("name resolved to no accounts", "fragment", fragment)
	}
	return ids, nil
}

// in formats memory as "<field> <op> (a, b)".
func in(field, op string) rules.Formatter {
	return func(memory []string) string {
		return fmt.Sprintf("%s %s (%s)", field, op, strings.Join(memory, ", "))
	}
}

func textSearch(memory []string) string {
	joined := strings.Join(memory, " ")
	return fmt.Sprintf(`(summary ~ "%s" OR text ~ "%s")`, joined, joined)
}

// defaultProjects renders the project default, or "" when none configured.
func defaultProjects(projects []string) string {
	if len(projects) == 0 {
		return ""
	}
	return in("project", "IN")(projects)
}
