// Package webserver serves the server-rendered spice shelf page.
package webserver

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/infrastructure/config"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/middleware"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/session"
	"github.com/spiceshelf/shelf/internal/infrastructure/monitoring"
	"github.com/spiceshelf/shelf/internal/ports/inbound"
	"github.com/spiceshelf/shelf/pkg/errors"
	"github.com/spiceshelf/shelf/pkg/healthcheck"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// WebServer represents the shelf frontend server
type WebServer struct {
	config    *config.Config
	logger    *zap.Logger
	service   inbound.ShelfService
	sessions  *session.Store
	metrics   *monitoring.Metrics
	tracing   *monitoring.TracingProvider
	health    *healthcheck.HealthCheck
	api       http.Handler
	limiter   *middleware.RateLimiter
	templates *template.Template
	router    *chi.Mux
	server    *http.Server
}

// NewWebServer creates a new web frontend server instance. api may be nil.
func NewWebServer(
	cfg *config.Config,
	log *zap.Logger,
	service inbound.ShelfService,
	sessions *session.Store,
	metrics *monitoring.Metrics,
	tracing *monitoring.TracingProvider,
	health *healthcheck.HealthCheck,
	api http.Handler,
) (*WebServer, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &WebServer{
		config:    cfg,
		logger:    log.Named("web"),
		service:   service,
		sessions:  sessions,
		metrics:   metrics,
		tracing:   tracing,
		health:    health,
		api:       api,
		templates: templates,
	}
	if cfg.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstSize,
			cfg.RateLimit.CleanupInterval,
			s.logger,
		)
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures the frontend routes
func (s *WebServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if s.tracing != nil {
		r.Use(s.tracing.Middleware)
	}
	r.Use(middleware.Logger(s.logger, "/live", "/ready"))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security(s.config.IsProduction()))
	if s.config.Server.EnableCompression {
		r.Use(middleware.Compress(5))
	}
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Use(s.metrics.HTTPMiddleware)
		r.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	if s.health != nil {
		probes := gin.New()
		probes.GET("/health", s.health.Handler())
		probes.GET("/ready", s.health.ReadinessHandler())
		probes.GET("/live", s.health.LivenessHandler())
		r.Method(http.MethodGet, "/health", probes)
		r.Method(http.MethodGet, "/ready", probes)
		r.Method(http.MethodGet, "/live", probes)
	}

	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Use(s.sessions.Middleware)

		r.Get("/", s.handleShelf)

		r.Group(func(r chi.Router) {
			r.Use(s.sessions.CSRF)
			r.Post("/basket/spices", s.handleAddSpice)
			r.Post("/basket/clear", s.handleClearBasket)
			r.Post("/basket/search", s.handleSearch)
		})

		if s.api != nil {
			r.Mount("/api", s.api)
		}
	})

	return r
}

// Handler returns the root handler
func (s *WebServer) Handler() http.Handler {
	return s.router
}

// Start starts the web frontend HTTP server
func (s *WebServer) Start() error {
	if s.limiter != nil {
		s.limiter.Start(s.config.RateLimit.CleanupInterval)
	}

	s.logger.Info("Starting Web Frontend server",
		zap.String("address", s.server.Addr),
		zap.Bool("metrics", s.config.Monitoring.EnableMetrics),
		zap.Bool("tracing", s.tracing != nil && s.tracing.Enabled()),
	)

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the web server
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down Web Frontend server...")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.server.Shutdown(ctx)
}

// parseTemplates parses all HTML templates from the embedded filesystem
func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
		"contains": func(items []string, item string) bool {
			for _, i := range items {
				if i == item {
					return true
				}
			}
			return false
		},
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
	}

	tmpl := template.New("").Funcs(funcMap)

	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tmpl, nil
}

func (s *WebServer) renderTemplate(w http.ResponseWriter, status int, name string, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	if data["Title"] == nil {
		data["Title"] = s.config.UI.Title
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("Failed to execute template",
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *WebServer) renderError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.Wrap(err, "Something went wrong")
	s.logger.Error("Request failed",
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		zap.String("code", string(appErr.Code)),
		zap.Error(err),
	)
	if s.metrics != nil {
		s.metrics.RecordError("web", string(appErr.Code))
	}

	s.renderTemplate(w, appErr.StatusCode(), "error", map[string]interface{}{
		"Message":   appErr.Message,
		"RequestID": chimiddleware.GetReqID(r.Context()),
	})
}
