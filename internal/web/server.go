// Package web provides the HTTP server and JSON handlers for the column
// detection and segment ingestion API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/marcelomvrocha/translation-system/internal/config"
	"github.com/marcelomvrocha/translation-system/internal/ingest"
)

// FileUploads is the attachment-side collaborator the upload endpoints need.
// The pgx-backed store in internal/storage satisfies it.
type FileUploads interface {
	SaveUpload(ctx context.Context, projectID, originalName, mimeType string, data []byte) (ingest.FileInfo, error)
	ListByProject(ctx context.Context, projectID string) ([]ingest.FileInfo, error)
}

// Server is the HTTP server for the ingestion API.
type Server struct {
	service *ingest.Service
	uploads FileUploads
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *ingest.Service, uploads FileUploads, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		uploads: uploads,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security hardening
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Column detection
		r.Get("/files/{fileID}/columns", s.handleDetectColumns)

		// Mapping presets
		r.Get("/presets", s.handleListPresets)

		r.Route("/projects/{projectID}", func(r chi.Router) {
			// File uploads
			r.Post("/files", s.handleUploadFile)
			r.Get("/files", s.handleListFiles)

			// Column configuration lifecycle
			r.Post("/files/{fileID}/column-config", s.handleSaveConfiguration)
			r.Get("/files/{fileID}/column-config", s.handleGetConfiguration)
			r.Delete("/column-configs/{configurationID}", s.handleDeleteConfiguration)

			// Configured parse
			r.Post("/files/{fileID}/parse-with-config", s.handleParseWithConfiguration)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
