package http

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// RiskService produces the data behind the map and the inspection list.
type RiskService interface {
	Predict(ctx context.Context) []domain.Prediction
	Inspections(ctx context.Context) []domain.Inspection
}

// Server exposes the map page, the prediction API, and health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        RiskService
	kakaoKey   string
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /, /api/info, /api/inspections,
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, svc RiskService, ready sharedobs.ReadinessChecker, kakaoKey string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// One prediction pass makes a weather call per location.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		svc:      svc,
		kakaoKey: kakaoKey,
		logger:   logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/inspections", s.handleInspections)
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

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, map[string]string{"KakaoKey": s.kakaoKey}); err != nil {
		s.logger.Error("render index", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleInfo always answers 200; per-location failures are already folded
// into the predictions.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	preds := s.svc.Predict(r.Context())
	s.logger.Info("predictions served", "count", len(preds), "duration", time.Since(start))
	sharedobs.WriteJSON(w, http.StatusOK, preds)
}

func (s *Server) handleInspections(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.Inspections(r.Context()))
}
