package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/services"
)

type Server struct {
	dashboard    *services.Dashboard
	mux          *http.ServeMux
	logger       *slog.Logger
	gatherer     prometheus.Gatherer
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

func NewServer(dashboard *services.Dashboard, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		dashboard:    dashboard,
		mux:          http.NewServeMux(),
		logger:       logger,
		gatherer:     gatherer,
		apiHandlers:  handlers.NewAPIHandlers(dashboard, m, logger),
		sseHandlers:  handlers.NewSSEHandlers(dashboard, m, logger),
		pageHandlers: handlers.NewPageHandlers(dashboard, m, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard pages
	s.mux.HandleFunc("GET /", s.pageHandlers.HandleIndex)
	s.mux.HandleFunc("GET /pages/{page}", s.pageHandlers.HandlePage)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)

	// Admin
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// REST API endpoints
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("POST /api/filter", s.apiHandlers.HandleApplyFilter)
	s.mux.HandleFunc("GET /api/pages/{page}", s.apiHandlers.HandlePage)
	s.mux.HandleFunc("GET /export/{page}", s.apiHandlers.HandleExport)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/pages/{page}", s.sseHandlers.HandlePage)
	s.mux.HandleFunc("POST /sse/filter", s.sseHandlers.HandleFilter)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
