package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/ingestion"
	"github.com/jonathan/proposal-writer/internal/observability"
	"github.com/jonathan/proposal-writer/internal/pipeline"
	"github.com/jonathan/proposal-writer/internal/server/middleware"
	"github.com/jonathan/proposal-writer/internal/server/ratelimit"
	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/types"
)

// Generator runs the proposal generation pipeline.
type Generator interface {
	Run(ctx context.Context, jobBrief string, onProgress pipeline.ProgressCallback) (types.Proposal, error)
}

// Reviser produces one revision of a proposal.
type Reviser interface {
	Revise(ctx context.Context, currentText, instruction string, priorTurns []types.ConversationTurn) (string, error)
}

// BriefSource turns a job posting URL into a job brief.
type BriefSource interface {
	FromURL(ctx context.Context, url string) (string, *ingestion.Metadata, error)
}

// Options configures a Server. Generator and Reviser are required.
type Options struct {
	Port      int
	Generator Generator
	Reviser   Reviser
	// Briefs resolves job_url requests; nil rejects them.
	Briefs BriefSource
	// Archive backs /proposals/saved; nil answers those routes with 501.
	Archive   store.ProposalArchive
	RateLimit *ratelimit.Config
	Breaker   *middleware.BreakerConfig
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	generator   Generator
	reviser     Reviser
	briefs      BriefSource
	archive     store.ProposalArchive
	rateLimiter *ratelimit.Limiter
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// New creates a new server instance
func New(opts Options) (*Server, error) {
	if opts.Generator == nil || opts.Reviser == nil {
		return nil, errors.New("server requires a generator and a reviser")
	}

	logger := observability.OrNop(opts.Logger)
	s := &Server{
		generator:   opts.Generator,
		reviser:     opts.Reviser,
		briefs:      opts.Briefs,
		archive:     opts.Archive,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		logger:      logger,
		metrics:     opts.Metrics,
	}

	breakerConfig := middleware.DefaultBreakerConfig("model")
	if opts.Breaker != nil {
		breakerConfig = *opts.Breaker
	}
	guard := middleware.Breaker(middleware.NewBreaker(breakerConfig, logger, opts.Metrics), logger)

	mux := http.NewServeMux()
	mux.Handle("POST /proposals", guard(http.HandlerFunc(s.handleGenerate)))
	mux.Handle("POST /proposals/stream", guard(http.HandlerFunc(s.handleGenerateStream)))
	mux.Handle("POST /proposals/revise", guard(http.HandlerFunc(s.handleRevise)))

	mux.HandleFunc("GET /proposals/saved", s.handleListSaved)
	mux.HandleFunc("POST /proposals/saved", s.handleSave)
	mux.HandleFunc("DELETE /proposals/saved/{id}", s.handleDeleteSaved)

	mux.HandleFunc("GET /health", s.handleHealth)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	s.handler = s.withRateLimit(middleware.Logging(logger, opts.Metrics)(s.withCORS(mux)))

	port := opts.Port
	if port == 0 {
		port = 8080
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // generation runs several model calls
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	defer s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)

		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure maps err to a status code and writes it.
func (s *Server) failure(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), PublicMessage(err))
}

// extractClientID returns the client IP from RemoteAddr.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
