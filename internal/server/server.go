// Package server sets up the HTTP server, router, and all route
// definitions. It is the composition root: every dependency is wired here,
// in one place, and each layer only receives what it needs — services get
// repository interfaces, handlers get services.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tahsin/medistock/internal/auth"
	"github.com/tahsin/medistock/internal/config"
	"github.com/tahsin/medistock/internal/handler"
	"github.com/tahsin/medistock/internal/middleware"
	sqliteRepo "github.com/tahsin/medistock/internal/repository/sqlite"
	"github.com/tahsin/medistock/internal/service"
)

// Server owns the router and the database connection. The DB is closed
// during graceful shutdown so the WAL is flushed and the file lock released.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the full dependency graph:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// When Google OAuth credentials are absent the server still starts (useful
// for local poking at the API with a hand-minted token), but the auth
// routes are not registered.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures middleware, builds the services, and mounts every
// route.
//
//	GET    /                       → landing (redirects anonymous users to /login)
//	GET    /login                  → anonymous entry point
//	GET    /auth/google/login      → begin provider challenge
//	GET    /auth/google/callback   → complete login
//	POST   /auth/logout            → logout
//	GET    /api/me                 → current user
//	CRUD   /api/medicines[/{id}]   → inventory
//	GET    /api/users              → account listing
//	GET    /api/login-history      → audit trail
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP) // audit records want the real client IP behind proxies
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.NoCache)

	sessions, err := auth.NewSessionService(
		s.config.SessionSecret,
		s.config.SessionTTL,
		s.config.SessionMaxLifetime,
		s.config.SessionSliding,
	)
	if err != nil {
		return fmt.Errorf("creating session service: %w", err)
	}

	provider := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)
	revoker := auth.NewRevocationClient(s.config.GoogleRevokeURL, s.config.RevokeTimeout, s.logger)
	auditLogger := service.NewAuditLogger(sqliteRepo.NewAuditStore(s.db), s.logger)

	authService := service.NewAuthService(
		provider,
		sqliteRepo.NewUserStore(s.db),
		auditLogger,
		sessions,
		revoker,
		s.config.ProviderTimeout,
		s.logger,
	)
	medicineService := service.NewMedicineService(sqliteRepo.NewMedicineStore(s.db), s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	medicineHandler := handler.NewMedicineHandler(medicineService, s.logger)
	adminHandler := handler.NewAdminHandler(authService, auditLogger, s.logger)

	// Page routes: anonymous users are redirected, not rejected.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalSession(sessions))
		r.Get("/", authHandler.HandleIndex)
		r.Get("/login", authHandler.HandleLoginPage)
		r.Post("/auth/logout", authHandler.HandleLogout)
	})

	if s.config.GoogleConfigured() {
		s.router.Get("/auth/google/login", authHandler.HandleGoogleLogin)
		s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
	} else {
		s.logger.Warn("Google OAuth credentials not set — login routes disabled")
	}

	// The JSON API rejects anonymous callers outright with 401.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireSession(sessions))
		r.Get("/me", authHandler.HandleMe)
		r.Get("/medicines", medicineHandler.HandleList)
		r.Post("/medicines", medicineHandler.HandleCreate)
		r.Get("/medicines/{id}", medicineHandler.HandleGetByID)
		r.Put("/medicines/{id}", medicineHandler.HandleUpdate)
		r.Delete("/medicines/{id}", medicineHandler.HandleDelete)
		r.Get("/users", adminHandler.HandleUsers)
		r.Get("/login-history", adminHandler.HandleLoginHistory)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
