// Package server wires the application together: it opens the database,
// builds the service and handler layers, defines every route, and runs the
// HTTP server with graceful shutdown. main.go stays minimal; all dependency
// injection happens here, in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/mentor-match/internal/auth"
	"github.com/sakif/mentor-match/internal/handler"
	"github.com/sakif/mentor-match/internal/imagestore"
	"github.com/sakif/mentor-match/internal/middleware"
	"github.com/sakif/mentor-match/internal/model"
	sqliteRepo "github.com/sakif/mentor-match/internal/repository/sqlite"
	"github.com/sakif/mentor-match/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	UploadDir string
	JWTSecret string

	// GitHub OAuth is optional; social login routes are only registered
	// when both credentials are present.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that must be released on
// shutdown, most importantly the database connection.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	images *imagestore.Store
}

// New assembles the full dependency chain:
//
//	sqlite.DB → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler layer
// touches HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		images: imagestore.New(cfg.UploadDir),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the assembled router, mainly for httptest in handler tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// Route map:
//
//	GET    /                              → health check (JSON)
//	GET    /images/{role}/{id}            → uploaded profile images
//	POST   /api/signup                    → create account
//	POST   /api/login                     → email/password login
//	GET    /api/validate                  → token introspection
//	POST   /api/check-password            → password strength feedback
//	GET    /api/auth/github/login         → GitHub OAuth redirect (optional)
//	GET    /api/auth/github/callback      → GitHub OAuth callback (optional)
//	GET    /api/users/me                  → caller's profile          [auth]
//	PUT    /api/users/profile             → update own profile        [auth]
//	GET    /api/mentors                   → browse mentors            [mentee]
//	POST   /api/match-requests            → file a request            [mentee]
//	GET    /api/match-requests/outgoing   → mentee's own requests     [mentee]
//	DELETE /api/match-requests/{id}       → cancel a request          [mentee]
//	GET    /api/match-requests/incoming   → requests to the mentor    [mentor]
//	PUT    /api/match-requests/{id}/accept                            [mentor]
//	PUT    /api/match-requests/{id}/reject                            [mentor]
func (s *Server) setupRoutes() error {
	// Global middleware, in order: request ID for tracing, real client IP
	// behind proxies, panic recovery, then our structured request log.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Wiring ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authService := service.NewAuthService(s.db.Users, tokens, passwords, s.logger)
	userService := service.NewUserService(s.db.Users, s.images, s.logger)
	mentorService := service.NewMentorService(s.db.Users, s.logger)
	matchService := service.NewMatchService(s.db.Matches, s.db.Users, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	mentorHandler := handler.NewMentorHandler(mentorService, s.logger)
	matchHandler := handler.NewMatchHandler(matchService, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db.Users)
	menteeOnly := auth.RequireRole(model.RoleMentee)
	mentorOnly := auth.RequireRole(model.RoleMentor)

	// === Routes ===
	s.router.Get("/", s.handleHealth)
	s.router.Get("/images/{role}/{id}", s.handleImage)

	s.router.Route("/api", func(r chi.Router) {
		// Public auth surface.
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/validate", authHandler.HandleValidate)
		r.Post("/check-password", authHandler.HandleCheckPassword)

		if github != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}

		// Routes for any authenticated user.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/users/me", userHandler.HandleMe)
			r.Put("/users/profile", userHandler.HandleUpdateProfile)
		})

		// Mentee-only routes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, menteeOnly)
			r.Get("/mentors", mentorHandler.HandleList)
			r.Post("/match-requests", matchHandler.HandleCreate)
			r.Get("/match-requests/outgoing", matchHandler.HandleOutgoing)
			r.Delete("/match-requests/{id}", matchHandler.HandleCancel)
		})

		// Mentor-only routes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, mentorOnly)
			r.Get("/match-requests/incoming", matchHandler.HandleIncoming)
			r.Put("/match-requests/{id}/accept", matchHandler.HandleAccept)
			r.Put("/match-requests/{id}/reject", matchHandler.HandleReject)
		})
	})

	return nil
}

// handleHealth reports service liveness at the root path.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"name":"Mentor-Mentee Matching API","version":"1.0.0","status":"healthy"}`)
}

// handleImage serves uploaded profile images from the local store. Images
// are immutable per user (re-uploads overwrite the same path), so a long
// cache lifetime is fine.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	// The role segment becomes a directory name, so only the two known
	// roles may reach the filesystem.
	role := model.Role(r.PathValue("role"))
	if !role.Valid() {
		http.NotFound(w, r)
		return
	}
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	path, contentType, err := s.images.Lookup(string(role), userID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, and close the database so the WAL is flushed.
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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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
