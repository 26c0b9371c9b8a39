package jira

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SearchFields are the issue fields requested by SearchJQL.
var SearchFields = []string{"summary", "status", "priority", "issuetype", "assignee", "project"}

type searchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

// SearchJQL runs jql and returns at most maxResults issues.
// A non-2xx response is returned as *APIError.
func (c *Client) SearchJQL(ctx context.Context, jql string, maxResults int) (*IssueResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "jira.Client.SearchJQL",
		trace.WithAttributes(
			attribute.String("jql", jql),
			attribute.Int("max_results", maxResults),
		),
	)
	defer span.End()

	incActiveRequests(endpointIssueSearch)
	defer decActiveRequests(endpointIssueSearch)
	start := time.Now()

	body := searchRequest{
		JQL:        jql,
		MaxResults: maxResults,
		Fields:     SearchFields,
	}

	var resp IssueResponse
	err := c.do(ctx, http.MethodPost, c.endpoint("rest/api/2/search/jql", nil), body, &resp)
	recordRequestMetrics(endpointIssueSearch, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.AddEvent("issues_received", trace.WithAttributes(
		attribute.Int("issues", len(resp.Issues)),
		attribute.Int("total", resp.Total),
	))
	return &resp, nil
}
