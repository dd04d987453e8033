// Package server wires handlers, middleware, and routes together and owns
// the HTTP listener lifecycle.
//
// This is the composition root: every dependency — database, token service,
// services, handlers — is constructed here and passed down explicitly.
// Nothing reads configuration or reaches for a global after this point.
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

	"github.com/sakif/rp-forum/internal/auth"
	"github.com/sakif/rp-forum/internal/config"
	"github.com/sakif/rp-forum/internal/handler"
	"github.com/sakif/rp-forum/internal/middleware"
	sqliteRepo "github.com/sakif/rp-forum/internal/repository/sqlite"
	"github.com/sakif/rp-forum/internal/service"
)

// Server holds the router and the resources it owns. The database handle is
// created in New and closed during graceful shutdown — it is the only
// stateful resource in the process.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and assembles the full dependency chain:
//
//	sqlite.DB → services (account, character, thread) → handlers → routes
//
// Services receive repository interfaces, handlers receive services; the
// handler layer never touches the database and the service layer never
// touches HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
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

func (s *Server) setupRoutes() error {
	// Global middleware, in execution order.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}

	passwords := auth.NewPasswordService()
	accountService := service.NewAccountService(s.db, passwords, s.logger)
	characterService := service.NewCharacterService(s.db, s.logger)
	threadService := service.NewThreadService(s.db, s.db, s.db, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(accountService, tokens, github, s.logger)
	characterHandler := handler.NewCharacterHandler(characterService, s.logger)
	threadHandler := handler.NewThreadHandler(threadService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		// Account surface
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)

		// Public thread surface. OptionalAuth on the detail route lets an
		// owner read their own draft while anonymous readers get a 403.
		r.With(optionalAuth).Get("/thread/{id}", threadHandler.HandleGet)
		r.Get("/published_forums", threadHandler.HandleListPublished)
		r.Get("/community", threadHandler.HandleCommunity)

		// Authenticated thread + character surface
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/thread", threadHandler.HandleUpsert)
			r.Get("/my_forums", threadHandler.HandleListMine)
			r.Get("/my_forums/{id}", threadHandler.HandleGetMine)
			r.Delete("/my_forums/{id}", threadHandler.HandleDelete)

			r.Get("/my_characters", characterHandler.HandleList)
			r.Post("/characters", characterHandler.HandleUpsert)
			r.Get("/characters/{id}", characterHandler.HandleGet)
			r.Delete("/characters/{id}", characterHandler.HandleDelete)
		})
	})

	// GitHub OAuth routes are registered only when configured.
	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	return nil
}

// Router exposes the configured routes. Used by tests to drive the full
// stack through httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, and close the database (flushes the WAL, releases the lock).
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
