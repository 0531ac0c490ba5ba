package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/logvaultdb/logvault/internal/handler"
	"github.com/logvaultdb/logvault/internal/ratelimit"
	"github.com/logvaultdb/logvault/internal/server/middleware"
	"github.com/logvaultdb/logvault/internal/service"
	"github.com/logvaultdb/logvault/internal/store"
	"github.com/logvaultdb/logvault/internal/validate"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	JWTSecret       string
	Version         string
	// IPRequestsPerMinute throttles unauthenticated endpoints per client IP.
	IPRequestsPerMinute int
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:                "0.0.0.0",
		Port:                8080,
		ShutdownTimeout:     30 * time.Second,
		CORSOrigins:         []string{"*"},
		Version:             "dev",
		IPRequestsPerMinute: 300,
	}
}

// Server is the top-level HTTP server. It owns the Chi router, the store,
// the services, and the per-key rate limiter.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	limiter    *ratelimit.Limiter
	authSvc    *service.AuthService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server, wires up all routes and middleware, and returns it
// ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		limiter: ratelimit.New(),
		authSvc: service.NewAuthService(st, cfg.JWTSecret, logger),
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	validator := validate.New()
	schemaSvc := service.NewSchemaService(s.store, validator)
	logSvc := service.NewLogService(s.store, validator)
	keySvc := service.NewAPIKeyService(s.store)

	sysHandler := handler.NewSystemHandler(s.store, s.cfg.Version)
	schemaHandler := handler.NewSchemaHandler(schemaSvc)
	logHandler := handler.NewLogHandler(logSvc, schemaSvc)
	keyHandler := handler.NewAPIKeyHandler(keySvc)

	baseURL := fmt.Sprintf("http://%s:%d", s.cfg.Host, s.cfg.Port)
	openAPIHandler := handler.NewOpenAPIHandler(baseURL, s.cfg.Version)

	// Unauthenticated surface, throttled per IP.
	r.Group(func(r chi.Router) {
		r.Use(middleware.IPRateLimit(s.cfg.IPRequestsPerMinute))
		r.Get("/healthz", sysHandler.Healthz)
		r.Get("/readyz", sysHandler.Readyz)
		r.Get("/openapi.json", openAPIHandler.ServeSpec)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Data plane, gated per API key.
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(s.authSvc, s.limiter))
			schemaHandler.Routes(r)
			logHandler.Routes(r)
		})

		// Management plane, gated by admin JWT.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(s.authSvc))
			keyHandler.Routes(r)
		})
	})

	s.router = r
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.limiter.Close()
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
