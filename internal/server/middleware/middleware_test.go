package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/observability"
)

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("body"))
	})
}

func TestLogging_RecordsRouteAndStatus(t *testing.T) {
	metrics := observability.NewMetrics("test")
	mux := http.NewServeMux()
	mux.Handle("POST /proposals", statusHandler(http.StatusCreated))

	h := Logging(zap.NewNop(), metrics)(mux)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/proposals", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST", "POST /proposals", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestLogging_NilMetricsAndLogger(t *testing.T) {
	h := Logging(nil, nil)(statusHandler(http.StatusOK))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "body", rr.Body.String())
}

func TestStatusRecorder_Flush(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := newStatusRecorder(rr)

	var w http.ResponseWriter = rec
	f, ok := w.(http.Flusher)
	require.True(t, ok)
	f.Flush()
	assert.True(t, rr.Flushed)
	assert.Same(t, rec, newStatusRecorder(rec))
}

func TestBreaker_TripsOnServerErrors(t *testing.T) {
	metrics := observability.NewMetrics("test")
	cfg := DefaultBreakerConfig("model")
	cfg.MinRequests = 3
	cfg.Timeout = time.Hour
	cb := NewBreaker(cfg, zap.NewNop(), metrics)

	calls := 0
	failing := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})
	h := Breaker(cb, zap.NewNop())(failing)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/proposals", nil))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/proposals", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "temporarily unavailable")
	assert.Equal(t, 3, calls, "open breaker must not reach the handler")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BreakerChanges.WithLabelValues("model", "open")))
}

func TestBreaker_MarkFailedTrips(t *testing.T) {
	cfg := DefaultBreakerConfig("stream")
	cfg.MinRequests = 2
	cfg.Timeout = time.Hour
	cb := NewBreaker(cfg, nil, nil)

	inBand := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("event: error\n\n"))
		MarkFailed(w)
	})
	h := Logging(nil, nil)(Breaker(cb, nil)(inBand))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/proposals/stream", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestMarkFailed_UnwrappedWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() { MarkFailed(rr) })
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	cfg := DefaultBreakerConfig("model")
	cfg.MinRequests = 1
	cb := NewBreaker(cfg, nil, nil)
	h := Breaker(cb, nil)(statusHandler(http.StatusBadRequest))

	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/proposals", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
