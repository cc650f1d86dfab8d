package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/handlers"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
)

type Server struct {
	views       *services.ViewBuilder
	router      chi.Router
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// NewServer wires the routes. Middlewares are installed on the router so
// they can see the matched route pattern; metrics may be nil, in which case
// /metrics is not mounted.
func NewServer(views *services.ViewBuilder, logger *slog.Logger, metrics *observability.Metrics, templateHandlers *TemplateHandlers, middlewares ...middleware.Middleware) *Server {
	s := &Server{
		views:       views,
		router:      chi.NewRouter(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(views, logger),
		sseHandlers: handlers.NewSSEHandlers(views, logger),
	}
	s.router.Use(middleware.Chain(middlewares...))
	s.setupRoutes(templateHandlers, metrics)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, metrics *observability.Metrics) {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.NotFound("no route for "+r.URL.Path))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.MethodNotAllowed(r.Method+" is not allowed on "+r.URL.Path))
	})

	// Dashboard routes
	s.router.Get("/", templateHandlers.Dashboard)
	s.router.Get("/health", s.apiHandlers.HandleHealth)
	s.router.Get("/admin/stats", s.apiHandlers.HandleStats)
	if metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	// REST API endpoints
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/seasons", s.apiHandlers.HandleSeasons)
		r.Get("/charts", s.apiHandlers.HandleCharts)
		r.Get("/charts/{kind}.png", s.apiHandlers.HandleChartPNG)
		r.Get("/export.xlsx", s.apiHandlers.HandleExport)
	})

	// Datastar SSE endpoints
	s.router.Get("/sse/charts", s.sseHandlers.HandleCharts)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
