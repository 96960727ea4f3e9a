package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oceanchat/oceanchat/internal/domain/localdata"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
	"github.com/oceanchat/oceanchat/internal/domain/routing"
	"github.com/oceanchat/oceanchat/internal/infra/config"
	"github.com/oceanchat/oceanchat/internal/infra/provider"
	"github.com/oceanchat/oceanchat/internal/observability"
)

func TestRouter_QuerySuccess(t *testing.T) {
	router := &stubRouter{
		routeFn: func(ctx context.Context, queryText, userID string) routing.Envelope {
			require.Equal(t, "temperature in the pacific", queryText)
			require.Equal(t, "u-42", userID)
			return routing.Envelope{Success: true, OriginalQuery: queryText, Count: 2, Source: ocean.SourceLiveAPI}
		},
	}

	recorder := performPost("/api/v1/query", `{"query":"temperature in the pacific","user_id":"u-42"}`, newRouterUnderTest(t, router))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got routing.Envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.True(t, got.Success)
	require.Equal(t, 2, got.Count)
	require.Equal(t, ocean.SourceLiveAPI, got.Source)
}

func TestRouter_QueryMissingText(t *testing.T) {
	recorder := performPost("/api/v1/query", `{"query":"  "}`, newRouterUnderTest(t, &stubRouter{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_QueryInvalidJSON(t *testing.T) {
	recorder := performPost("/api/v1/query", `{"query":123}`, newRouterUnderTest(t, &stubRouter{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_QueryFallbackStillOK(t *testing.T) {
	router := &stubRouter{
		routeFn: func(_ context.Context, queryText, _ string) routing.Envelope {
			return routing.Envelope{Success: true, OriginalQuery: queryText, Source: ocean.SourceLocalDatabase}
		},
	}

	recorder := performPost("/api/v1/query", `{"query":"deep salinity"}`, newRouterUnderTest(t, router))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got routing.Envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, ocean.SourceLocalDatabase, got.Source)
}

func TestRouter_QueryGet(t *testing.T) {
	router := &stubRouter{
		routeFn: func(_ context.Context, queryText, userID string) routing.Envelope {
			require.Equal(t, "arctic salinity", queryText)
			require.Equal(t, "u-1", userID)
			return routing.Envelope{Success: true, OriginalQuery: queryText}
		},
	}
	server := newRouterUnderTest(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/query?q=arctic+salinity&user_id=u-1", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_QueryGetMissingParam(t *testing.T) {
	server := newRouterUnderTest(t, &stubRouter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/query", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	server := newRouterUnderTest(t, &stubRouter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "oceanchat", body["service"])
}

func TestRouter_Coverage(t *testing.T) {
	server := newRouterUnderTest(t, &stubRouter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/coverage", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got localdata.CoverageSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, int64(123), got.TotalMeasurements)
}

func TestRouter_LiveDataStatus(t *testing.T) {
	server := newRouterUnderTest(t, &stubRouter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/live-data/status", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got provider.LiveStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, got.Available)
	require.Equal(t, provider.StatusActive, got.Status)
}

func performPost(path, body string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, router routing.Service) *http.Server {
	t.Helper()
	handler := NewHandler(router, stubCoverage{}, stubStatus{}, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	return NewRouter(cfg, handler, observability.NewMetricsForTesting())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubRouter struct {
	routeFn func(ctx context.Context, queryText, userID string) routing.Envelope
}

func (s *stubRouter) Route(ctx context.Context, queryText, userID string) routing.Envelope {
	if s.routeFn != nil {
		return s.routeFn(ctx, queryText, userID)
	}
	return routing.Envelope{Success: true, OriginalQuery: queryText}
}

type stubCoverage struct{}

func (stubCoverage) Coverage(context.Context) localdata.CoverageSummary {
	return localdata.CoverageSummary{TotalMeasurements: 123}
}

type stubStatus struct{}

func (stubStatus) LiveStatus(context.Context) provider.LiveStatus {
	return provider.LiveStatus{Available: true, Status: provider.StatusActive}
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	server := newRouterUnderTest(t, &stubRouter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRouter_RequestIDGenerated(t *testing.T) {
	server := newRouterUnderTest(t, &stubRouter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_RateLimitRejectsAndCounts(t *testing.T) {
	handler := NewHandler(&stubRouter{}, stubCoverage{}, stubStatus{}, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			RateLimit: config.RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 1,
				Burst:             1,
			},
		},
	}
	metrics := observability.NewMetricsForTesting()
	server := NewRouter(cfg, handler, metrics)

	first := httptest.NewRecorder()
	server.Handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	server.Handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "60", second.Header().Get("Retry-After"))

	errBody := decodeErrorBody(t, second.Body.Bytes())
	require.Equal(t, "rate_limit_exceeded", errBody["error"]["code"])
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.RateLimitRejections))
}

func TestRouter_CORSExposesRequestID(t *testing.T) {
	server := newRouterUnderTest(t, &stubRouter{})

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
