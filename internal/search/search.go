// Package search turns search text into displayable results: usage hints
// for empty input, otherwise the issues matching the generated JQL.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/jirasearch/internal/jira"
)

const minSearchTimeout = 3 * time.Second

// Kind classifies a Result.
type Kind string

const (
	KindHint    Kind = "hint"
	KindIssue   Kind = "issue"
	KindBrowser Kind = "browser"
)

// Badge values derived from an issue's status category.
const (
	BadgeDone     = "done"
	BadgeProgress = "progress"
	BadgeOpen     = "open"
)

// Titles of the browser fallback entries.
const (
	TitleNoResults   = "No results. Open search in browser"
	TitleMoreResults = "More results in browser ..."
)

// Result is one line of search output.
type Result struct {
	Kind     Kind   `json:"kind"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Key      string `json:"key,omitempty"`
	URL      string `json:"url,omitempty"`
	JQL      string `json:"jql,omitempty"`
	Badge    string `json:"badge,omitempty"`
	Icon     string `json:"icon,omitempty"`
	CopyText string `json:"copy_text,omitempty"`
}

// QueryBuilder converts text into JQL.
type QueryBuilder interface {
	BuildTextJQL(ctx context.Context, text string, projects []string) (string, error)
}

// IssueSearcher runs JQL against the backend.
type IssueSearcher interface {
	SearchJQL(ctx context.Context, jql string, maxResults int) (*jira.IssueResponse, error)
}

// Options are the settings a Searcher needs.
type Options struct {
	BaseURL         string
	DefaultProjects []string
	MaxResults      int
	Timeout         time.Duration
	Logger          *slog.Logger
}

// Searcher answers search text with results.
type Searcher struct {
	builder QueryBuilder
	issues  IssueSearcher
	opts    Options
	logger  *slog.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(builder QueryBuilder, issues IssueSearcher, opts Options) *Searcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Searcher{
		builder: builder,
		issues:  issues,
		opts:    opts,
		logger:  logger,
	}
}

// Query returns the hints for blank text, otherwise the matching issues.
//
// A backend API error is shown as the "no results" browser entry; query
// building failures and transport errors are returned.
func (s *Searcher) Query(ctx context.Context, text string) ([]Result, error) {
	s.logger.Info("search", "query", text)

	if strings.TrimSpace(text) == "" {
		return Hints(), nil
	}

	jql, err := s.builder.BuildTextJQL(ctx, text, s.opts.DefaultProjects)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	s.logger.Info("search", "jql", jql)

	return s.search(ctx, jql)
}

func (s *Searcher) search(ctx context.Context, jql string) ([]Result, error) {
	timeout := s.opts.Timeout
	if timeout < minSearchTimeout {
		timeout = minSearchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.issues.SearchJQL(ctx, jql, s.opts.MaxResults+1)
	if err != nil {
		if !jira.IsAPIError(err) {
			return nil, fmt.Errorf("search issues: %w", err)
		}
		s.logger.Warn("issue search rejected", "jql", jql, "error", err)
		resp = nil
	}

	if resp == nil || len(resp.Issues) == 0 {
		return []Result{s.browserResult(TitleNoResults, jql)}, nil
	}

	issues := resp.Issues
	more := len(issues) > s.opts.MaxResults
	if more {
		issues = issues[:s.opts.MaxResults]
	}

	results := make([]Result, 0, len(issues)+1)
	for _, issue := range issues {
		results = append(results, s.issueResult(issue, jql))
	}
	if more {
		results = append(results, s.browserResult(TitleMoreResults, jql))
	}
	return results, nil
}

func (s *Searcher) issueResult(issue jira.Issue, jql string) Result {
	assignee := "Unassigned"
	icon := ""
	if a := issue.Fields.Assignee; a != nil {
		assignee = a.DisplayName
		if a.AvatarURLs != nil {
			icon = a.AvatarURLs.Size48
		}
	}

	browse := issue.BrowseURL(s.opts.BaseURL)
	return Result{
		Kind:     KindIssue,
		Title:    issue.Key + " · " + issue.Fields.Summary,
		Subtitle: issue.Fields.Status.Name + " · " + assignee,
		Key:      issue.Key,
		URL:      browse,
		JQL:      jql,
		Badge:    BadgeFor(issue.Fields.Status.CategoryKey()),
		Icon:     icon,
		CopyText: browse,
	}
}

func (s *Searcher) browserResult(title, jql string) Result {
	return Result{
		Kind:     KindBrowser,
		Title:    title,
		Subtitle: "JQL: " + jql,
		URL:      SearchURL(s.opts.BaseURL, jql),
		JQL:      jql,
	}
}

// BadgeFor maps a status category key to a badge.
func BadgeFor(categoryKey string) string {
	switch categoryKey {
	case "done":
		return BadgeDone
	case "indeterminate":
		return BadgeProgress
	default:
		return BadgeOpen
	}
}

// SearchURL is the issue navigator page for jql on the site at baseURL.
func SearchURL(baseURL, jql string) string {
	return strings.TrimSuffix(baseURL, "/") + "/issues/?jql=" + url.QueryEscape(jql)
}

// Hints returns the usage hints shown for empty input.
func Hints() []Result {
	return []Result{
		hint("@me name", "Assigned to me (@me) or to a specific person (name)"),
		hint("@reporter:me @reporter:name", "Reported by me (@reporter:me) or by name"),
		hint("@was:me @was:name", "Was assigned to me (@was:me) or name"),
		hint("*", "All statuses"),
		hint("!", "Completed issues"),
		hint("#ABC", "Project ABC"),
		hint("+Label1", "Issues with label 'Label1'"),
	}
}

func hint(title, subtitle string) Result {
	return Result{Kind: KindHint, Title: title, Subtitle: subtitle}
}
