// Package server is the composition root: it builds the store, the
// services and the handlers from a Config, mounts the routes, and runs the
// HTTP server until it is told to stop.
//
// DEPENDENCY FLOW:
//
//	Config → sqlite.DB ──→ ProfileService ─┐
//	                   ├─→ PickService ────┼─→ PageHandler, APIHandler
//	                   └─→ FollowService ──┘
//	Config → TokenService + Revocations (redis or memory) → Authenticator, AuthService → AuthHandler
//
// Handlers only see services; services only see repository interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/aurabetz/internal/auth"
	"github.com/sakif/aurabetz/internal/handler"
	"github.com/sakif/aurabetz/internal/middleware"
	sqliteRepo "github.com/sakif/aurabetz/internal/repository/sqlite"
	"github.com/sakif/aurabetz/internal/service"
)

// Config holds server configuration. cmd/server fills it from the
// environment.
type Config struct {
	Port       int
	DBPath     string
	JWTSecret  string
	SessionTTL time.Duration // zero means auth.DefaultSessionTTL

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// RedisAddr enables the redis revocation store. Empty keeps revocations
	// in process memory, which is lost on restart.
	RedisAddr     string
	RedisPassword string

	// AdminKeyHash is the bcrypt hash of the publisher key. Empty disables
	// POST /api/admin/picks.
	AdminKeyHash string

	// Provider replaces the Google provider. Tests use it to sign in
	// without a network round trip.
	Provider auth.IdentityProvider
}

// Server owns the database and redis connections; Start closes both on
// shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	redis  *redis.Client // nil without RedisAddr
}

// New opens the store, wires every layer, and mounts the routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = auth.DefaultSessionTTL
	}

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
		s.close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the root handler, for tests that drive the server through
// httptest instead of Start.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) revocations() (auth.Revocations, error) {
	if s.config.RedisAddr == "" {
		s.logger.Warn("REDIS_ADDR not set, session revocations are kept in memory")
		return auth.NewMemoryRevocations(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     s.config.RedisAddr,
		Password: s.config.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", s.config.RedisAddr, err)
	}
	s.redis = rdb
	return auth.NewRedisRevocations(rdb), nil
}

// setupRoutes wires the layers and mounts every route.
//
// ROUTES:
//
//	GET  /healthz
//	GET  /  /preview-landing  /onboarding  /dashboard  /profile
//	POST /onboarding  /dashboard/picks/{id}/follow  /dashboard/picks/{id}/unfollow
//	GET  /auth/google/login  /auth/google/callback
//	POST /auth/logout
//	/api/...                 (see handler.APIHandler)
//
// Pages use OptionalAuth and redirect anonymous visitors themselves; the
// JSON API rejects them with 401.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	revocations, err := s.revocations()
	if err != nil {
		return err
	}

	var adminKey *auth.AdminKey
	if s.config.AdminKeyHash == "" {
		s.logger.Warn("ADMIN_KEY_HASH not set, publishing picks is disabled")
	} else if adminKey, err = auth.NewAdminKey(s.config.AdminKeyHash); err != nil {
		return err
	}

	provider := s.config.Provider
	if provider == nil {
		provider = auth.NewGoogleProvider(s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleCallbackURL)
	}

	// === Services ===
	profileService := service.NewProfileService(s.db.Profiles(), s.logger)
	pickService := service.NewPickService(s.db.Picks(), s.db.Follows(), s.logger)
	followService := service.NewFollowService(s.db.Follows(), pickService, service.NewInFlight(), s.logger)
	authService := service.NewAuthService(profileService, tokens, revocations, s.logger)

	// === Handlers ===
	authn := auth.NewAuthenticator(tokens, revocations, s.logger)
	secure := strings.HasPrefix(s.config.GoogleCallbackURL, "https://")
	authHandler := handler.NewAuthHandler(provider, authService, tokens.TTL(), secure, s.logger)
	apiHandler := handler.NewAPIHandler(profileService, pickService, followService, adminKey, s.logger)
	pageHandler, err := handler.NewPageHandler(profileService, pickService, followService, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	checks := map[string]handler.HealthCheck{"sqlite": s.db.Ping}
	if s.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return s.redis.Ping(ctx).Err() }
	}

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", handler.HandleHealth(checks, s.logger))

	// === Pages ===
	s.router.Group(func(r chi.Router) {
		r.Use(authn.OptionalAuth)
		r.Get("/", pageHandler.HandleLanding)
		r.Get("/preview-landing", pageHandler.HandleLanding)
		r.Get("/onboarding", pageHandler.HandleOnboarding)
		r.Post("/onboarding", pageHandler.HandleOnboardingSubmit)
		r.Get("/dashboard", pageHandler.HandleDashboard)
		r.Post("/dashboard/picks/{id}/follow", pageHandler.HandleFollow)
		r.Post("/dashboard/picks/{id}/unfollow", pageHandler.HandleUnfollow)
		r.Get("/profile", pageHandler.HandleProfile)
	})
	s.router.NotFound(authn.OptionalAuth(http.HandlerFunc(pageHandler.HandleNotFound)).ServeHTTP)

	// === Auth ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.With(authn.OptionalAuth).Get("/picks", apiHandler.HandleListPicks)
		r.Post("/admin/picks", apiHandler.HandlePublishPick)

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/profile", apiHandler.HandleGetProfile)
			r.Put("/profile/preferences", apiHandler.HandleSavePreferences)
			r.Post("/picks/{id}/follow", apiHandler.HandleFollow)
			r.Delete("/picks/{id}/follow", apiHandler.HandleUnfollow)
		})
	})

	return nil
}

func (s *Server) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("closing redis", slog.String("error", err.Error()))
		}
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("closing database", slog.String("error", err.Error()))
	}
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the connections.
func (s *Server) Start() error {
	defer s.close()

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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
