package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/observability"
)

var errServerStatus = errors.New("handler returned a server error status")

// BreakerConfig holds configuration for a circuit breaker.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// trip once at least MinRequests were seen and the failure ratio reaches FailureThreshold
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the configuration used for the model-backed routes.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// NewBreaker builds a circuit breaker that logs and counts its state changes.
func NewBreaker(config BreakerConfig, logger *zap.Logger, metrics *observability.Metrics) *gobreaker.CircuitBreaker {
	logger = observability.OrNop(logger)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.IncBreakerTransition(name, to.String())
		},
	})
}

// Breaker guards next with cb. A 5xx response, or one flagged with
// MarkFailed, counts as a failure; while the
// breaker is open requests are rejected with 503 without reaching next.
func Breaker(cb *gobreaker.CircuitBreaker, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = observability.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := cb.Execute(func() (any, error) {
				rec := newStatusRecorder(w)
				next.ServeHTTP(rec, r)
				if rec.status >= 500 || rec.failed {
					return nil, errServerStatus
				}
				return nil, nil
			})

			switch {
			case err == nil, errors.Is(err, errServerStatus):
				// response already written
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				logger.Warn("circuit breaker rejected request",
					zap.String("breaker", cb.Name()),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "model service temporarily unavailable, please try again later")
			default:
				logger.Error("circuit breaker error", zap.String("breaker", cb.Name()), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		})
	}
}
