package jira

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// userCandidate is one entry of the user search response.
type userCandidate struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// FindUserIDsByExactName returns the account ids of users whose display
// name contains name as a whole token, or equals it.
//
// Up to maxResults candidates are requested from the user search endpoint
// and filtered locally. A blank name returns an empty result without a
// request. Ids are unique and keep the server's order.
func (c *Client) FindUserIDsByExactName(ctx context.Context, name string, maxResults int) ([]string, error) {
	wanted := strings.TrimSpace(name)
	if wanted == "" {
		return []string{}, nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "jira.Client.FindUserIDsByExactName",
		trace.WithAttributes(
			attribute.Int("max_results", maxResults),
		),
	)
	defer span.End()

	incActiveRequests(endpointUserSearch)
	defer decActiveRequests(endpointUserSearch)
	start := time.Now()

	query := url.Values{}
	query.Set("query", wanted)
	query.Set("maxResults", strconv.Itoa(maxResults))

	var candidates []userCandidate
	err := c.do(ctx, http.MethodGet, c.endpoint("rest/api/2/user/search", query), nil, &candidates)
	recordRequestMetrics(endpointUserSearch, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ids := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, u := range candidates {
		if !matchesName(u.DisplayName, wanted) {
			continue
		}
		if strings.TrimSpace(u.AccountID) == "" {
			continue
		}
		if _, dup := seen[u.AccountID]; dup {
			continue
		}
		seen[u.AccountID] = struct{}{}
		ids = append(ids, u.AccountID)
	}

	span.AddEvent("users_matched", trace.WithAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("matched", len(ids)),
	))
	c.logger.Debug("user search",
		"candidates", len(candidates),
		"matched", len(ids),
	)
	return ids, nil
}
