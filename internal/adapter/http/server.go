package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

// Version is reported by the info and health endpoints.
const Version = "1.0.0"

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// PredictionService is the prediction core as seen by the HTTP layer.
type PredictionService interface {
	ReadinessChecker
	PredictLocation(ctx context.Context, zip string) (domain.Decision, error)
	PredictFeatures(ctx context.Context, in domain.FeatureInput) (domain.Decision, error)
	ModelLoaded(ctx context.Context) bool
	FeatureImportance(ctx context.Context) ([]domain.FeatureWeight, error)
}

// ReadinessCheckers is ready only when every checker is ready.
type ReadinessCheckers []ReadinessChecker

// CheckReadiness returns the first checker error.
func (c ReadinessCheckers) CheckReadiness(ctx context.Context) error {
	for _, checker := range c {
		if err := checker.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Options configures routing.
type Options struct {
	Addr       string
	APIPrefix  string
	DefaultZIP string

	// Readiness holds components checked by /readyz alongside the service.
	Readiness []ReadinessChecker
}

// Server exposes the prediction API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        PredictionService
	validate   *validator.Validate
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API routes under opts.APIPrefix
// and /healthz, /readyz, and /metrics at the root.
func NewServer(opts Options, svc PredictionService, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:      svc,
		validate: newValidator(),
		opts:     opts,
		logger:   logger,
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)

	r.Get("/", s.handleInfo)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(append(ReadinessCheckers{svc}, opts.Readiness...)))
	r.Handle("/metrics", promhttp.Handler())

	r.Route(opts.APIPrefix, func(r chi.Router) {
		r.Get("/health", s.handleAPIHealth)
		r.Get("/predict", s.handlePredict)
		r.Post("/predict", s.handlePredict)
		r.Post("/predict/features", s.handlePredictFeatures)
		r.Get("/model/importance", s.handleImportance)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr, "api_prefix", s.opts.APIPrefix)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// corsMiddleware allows any origin, matching the public read-only API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
