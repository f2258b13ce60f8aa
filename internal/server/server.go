// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware and
// routes, and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads the config and opens the store, then:
//
//	Server.New() creates: TokenService, Validator, Metrics
//	                   → SnippetService / CommentService / AuthService
//	                   → SnippetHandler / CommentHandler / AuthHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/config"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/handler"
	"github.com/sakif/snippetshare/internal/metrics"
	"github.com/sakif/snippetshare/internal/middleware"
	"github.com/sakif/snippetshare/internal/repository"
	"github.com/sakif/snippetshare/internal/service"
	"github.com/sakif/snippetshare/web"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The store is opened by the caller and passed in; the caller closes it
// after Run returns, once in-flight requests have drained.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	metrics *metrics.Metrics
}

// New wires every layer on top of store and builds the router.
func New(cfg *config.Config, logger *slog.Logger, store repository.Store) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	if cfg.Metrics.Enabled {
		s.metrics = metrics.New()
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// recorder returns the metrics collector as a service.Recorder, or nil when
// metrics are disabled. A nil *metrics.Metrics must not leak into the
// interface, or the services would call methods on it.
func (s *Server) recorder() service.Recorder {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET       /                              → snippet list
//	GET/POST  /snippets/new/                 → create        [login]
//	GET       /snippets/{id}/                → detail
//	GET/POST  /snippets/{id}/edit/           → edit          [login + owner]
//	GET/POST  /snippets/{id}/comments/new/   → add a comment [login]
//	GET/POST  {auth.login_url}               → login form
//	POST      /accounts/logout/              → logout
//	GET       /auth/github/login, /callback  → GitHub OAuth (when configured)
//	GET       /static/*, /healthz, /metrics
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: unique ID per request, picked up by the logger
//  2. RealIP: client IP from proxy headers
//  3. Logger: one line per request, after Recoverer has turned a panic into a 500
//  4. Recoverer
//  5. Metrics: needs the matched route pattern, so it reads it after next returns
//  6. Locale: Accept-Language for validation messages
//  7. LoadIdentity: session cookie → auth.Identity on the context
func (s *Server) setupRoutes() error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	validator, err := form.NewValidator(cfg.Site.Locale)
	if err != nil {
		return fmt.Errorf("creating validator: %w", err)
	}
	render, err := handler.NewRenderer(web.FS, cfg.Site.Title, cfg.Auth.LoginURL, s.logger)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	// === Services ===
	recorder := s.recorder()
	snippets := service.NewSnippetService(s.store.Snippets(), s.store.Comments(), validator, recorder, s.logger)
	comments := service.NewCommentService(s.store.Snippets(), s.store.Comments(), validator, recorder, s.logger)
	accounts := service.NewAuthService(s.store.Users(), tokens, auth.NewPasswordService(), validator, recorder, s.logger)

	// === Handlers ===
	var github *auth.GitHubProvider
	if cfg.Auth.GitHub.Enabled() {
		gh := cfg.Auth.GitHub
		github = auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, gh.CallbackURL)
	}
	cookies := auth.Cookies{Secure: cfg.Auth.CookieSecure}

	snippetHandler := handler.NewSnippetHandler(snippets, render, s.logger)
	commentHandler := handler.NewCommentHandler(comments, snippets, render, s.logger)
	authHandler := handler.NewAuthHandler(accounts, github, cookies, render, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
	}
	s.router.Use(middleware.Locale)
	s.router.Use(auth.LoadIdentity(tokens, accounts, s.logger))

	// === Static Files ===
	// Served from the embedded web.FS, so GET /static/css/style.css
	// reads static/css/style.css inside the binary.
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return fmt.Errorf("opening static files: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.router.Get("/healthz", healthHandler.HandleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// === Public Pages ===
	s.router.Get("/", snippetHandler.HandleTop)
	s.router.Get("/snippets/{id}/", snippetHandler.HandleDetail)

	s.router.Get(cfg.Auth.LoginURL, authHandler.HandleLoginForm)
	s.router.Post(cfg.Auth.LoginURL, authHandler.HandleLogin)
	s.router.Post("/accounts/logout/", authHandler.HandleLogout)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// === Login-only Pages ===
	// Ownership on edit is checked by SnippetService, not here: a 403 needs
	// the snippet, which the gate does not load.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin(cfg.Auth.LoginURL))

		r.Get("/snippets/new/", snippetHandler.HandleNewForm)
		r.Post("/snippets/new/", snippetHandler.HandleCreate)
		r.Get("/snippets/{id}/edit/", snippetHandler.HandleEditForm)
		r.Post("/snippets/{id}/edit/", snippetHandler.HandleUpdate)
		r.Get("/snippets/{id}/comments/new/", commentHandler.HandleNewForm)
		r.Post("/snippets/{id}/comments/new/", commentHandler.HandleCreate)
	})

	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully:
//  1. Stop accepting new connections
//  2. Wait up to server.shutdown_timeout for in-flight requests
func (s *Server) Run(ctx context.Context) error {
	cfg := s.config.Server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", cfg.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", cfg.Port)),
			slog.String("database", s.config.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully", slog.Duration("timeout", cfg.ShutdownTimeout))
	}

	return nil
}
