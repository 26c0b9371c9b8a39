package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"canceled", context.Canceled, "canceled"},
		{"deadline wrapped", fmt.Errorf("GET /x: %w", context.DeadlineExceeded), "canceled"},
		{"unauthorized", &APIError{StatusCode: 401}, "auth"},
		{"forbidden", &APIError{StatusCode: 403}, "auth"},
		{"not found", &APIError{StatusCode: 404}, "not_found"},
		{"rate limited", &APIError{StatusCode: 429}, "rate_limit"},
		{"bad request", &APIError{StatusCode: 400}, "client"},
		{"server", &APIError{StatusCode: 502}, "server"},
		{"transport", errors.New("connection refused"), "transport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyError(tt.err))
		})
	}
}

func TestAPIError_Temporary(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 429}).Temporary())
	assert.True(t, (&APIError{StatusCode: 503}).Temporary())
	assert.False(t, (&APIError{StatusCode: 400}).Temporary())
	assert.False(t, (&APIError{StatusCode: 404}).Temporary())
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "jira: HTTP 500", (&APIError{StatusCode: 500}).Error())
	assert.Equal(t, "jira: HTTP 400: bad", (&APIError{StatusCode: 400, Message: "bad"}).Error())
}

func TestRecordRequestMetrics(t *testing.T) {
	before := testutil.ToFloat64(errorsTotal.WithLabelValues(endpointIssueSearch, "server"))
	beforeCalls := testutil.ToFloat64(requestsTotal.WithLabelValues(endpointIssueSearch, "error"))

	recordRequestMetrics(endpointIssueSearch, 0, &APIError{StatusCode: 500})

	assert.Equal(t, before+1, testutil.ToFloat64(errorsTotal.WithLabelValues(endpointIssueSearch, "server")))
	assert.Equal(t, beforeCalls+1, testutil.ToFloat64(requestsTotal.WithLabelValues(endpointIssueSearch, "error")))
}

func TestFindUserIDsByExactName_Span(t *testing.T) {
	exporter := setupTestTracer(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []userCandidate{{AccountID: "a1", DisplayName: "Anna Lee"}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FindUserIDsByExactName(context.Background(), "anna", 5)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "jira.Client.FindUserIDsByExactName", spans[0].Name)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "users_matched", spans[0].Events[0].Name)
}

func TestSearchJQL_ErrorSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.SearchJQL(context.Background(), "x", 1)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}
