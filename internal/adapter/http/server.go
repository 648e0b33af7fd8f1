package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Predictor answers predictions for a station.
type Predictor interface {
	Predict(ctx context.Context, stationID string, record map[string]float64) (float64, error)
	PredictBatch(ctx context.Context, stationID string, records []map[string]float64) ([]float64, error)
}

// Server exposes the prediction API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer     *http.Server
	predictor      Predictor
	predictTimeout time.Duration
	logger         *slog.Logger
}

// NewServer creates an HTTP server with /api/predict, /api/predict/batch,
// /healthz, /readyz, and /metrics routes. Each prediction request is bounded
// by predictTimeout.
func NewServer(addr string, predictor Predictor, ready sharedobs.ReadinessChecker, predictTimeout time.Duration, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor:      predictor,
		predictTimeout: predictTimeout,
		logger:         logger,
	}

	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("POST /api/predict/batch", s.handlePredictBatch)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
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
