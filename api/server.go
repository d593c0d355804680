// Package api exposes the HTTP surface: the authenticated chat and
// sync endpoints and the admin login/CRUD endpoints.
package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tunaaoguzhann/coach-relay/core"
	"github.com/tunaaoguzhann/coach-relay/store"
)

const defaultSessionTTL = 12 * time.Hour

type Config struct {
	Relay        *core.Relay
	Users        store.Store
	LoginLimiter *core.Limiter

	JWTSecret string
	// AllowedOrigin, when set, is the only Origin accepted on
	// state-changing requests.
	AllowedOrigin string
	SessionTTL    time.Duration
	Logger        *slog.Logger
}

type Server struct {
	relay         *core.Relay
	users         store.Store
	loginLimiter  *core.Limiter
	jwtSecret     string
	allowedOrigin string
	sessionTTL    time.Duration
	logger        *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Relay == nil {
		return nil, fmt.Errorf("relay is required")
	}
	if cfg.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if cfg.LoginLimiter == nil {
		return nil, fmt.Errorf("login limiter is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		relay:         cfg.Relay,
		users:         cfg.Users,
		loginLimiter:  cfg.LoginLimiter,
		jwtSecret:     cfg.JWTSecret,
		allowedOrigin: cfg.AllowedOrigin,
		sessionTTL:    ttl,
		logger:        logger,
	}, nil
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(s.originCheck)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.jwtAuth)
		api.Post("/chat", s.handleChat)
		api.Get("/sync", s.handleGetSync)
		api.Put("/sync", s.handlePutSync)
	})

	r.Post("/admin/login", s.handleAdminLogin)
	r.Route("/admin/users", func(admin chi.Router) {
		admin.Use(s.jwtAuth)
		admin.Use(s.requireAdmin)
		admin.Get("/", s.handleListUsers)
		admin.Post("/", s.handleCreateUser)
		admin.Get("/{id}", s.handleGetUser)
		admin.Put("/{id}", s.handleUpdateUser)
		admin.Delete("/{id}", s.handleDeleteUser)
	})

	return r
}
