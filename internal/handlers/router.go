package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bikerly/api/internal/auth"
	"github.com/bikerly/api/internal/db"
	"github.com/bikerly/api/internal/logging"
	"github.com/bikerly/api/internal/metrics"
	"github.com/bikerly/api/internal/middleware"
)

// Per-route rate limit budgets: registration is tighter than login to slow
// account farming, login is tight enough to blunt brute force.
const (
	registerMaxRequests = 5
	loginMaxRequests    = 10
	authWindowSeconds   = 60
)

// RouterConfig carries the dependencies the HTTP surface needs.
type RouterConfig struct {
	Store        db.Store
	Tokens       *auth.TokenManager
	Logger       *logging.Logger
	Limiter      *middleware.RateLimiter
	GlobalCalls  int
	GlobalPeriod int
}

// NewRouter assembles the full HTTP surface: middleware chain, public auth
// routes with per-route rate limits, and the token-gated user routes.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandlers := NewAuthHandlers(cfg.Store, cfg.Tokens, cfg.Logger)
	userHandlers := NewUserHandlers(cfg.Logger)
	authenticator := auth.NewAuthenticator(cfg.Tokens, cfg.Store, cfg.Logger)

	router := mux.NewRouter()

	// Order matters: identify the request, then guard against panics, then
	// observe, then admit.
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(cfg.Logger))
	router.Use(middleware.LoggingMiddleware(cfg.Logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RateLimitMiddleware(
		cfg.Limiter, cfg.GlobalCalls, cfg.GlobalPeriod,
		[]string{"/", "/health", "/metrics"},
		cfg.Logger,
	))

	router.HandleFunc("/", Health).Methods("GET")
	router.HandleFunc("/health", Health).Methods("GET")
	router.HandleFunc("/health/system", HealthSystem).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	authRouter := router.PathPrefix("/api/auth").Subrouter()
	registerLimit := middleware.RateLimit(cfg.Limiter, registerMaxRequests, authWindowSeconds, cfg.Logger)
	loginLimit := middleware.RateLimit(cfg.Limiter, loginMaxRequests, authWindowSeconds, cfg.Logger)
	authRouter.HandleFunc("/register", registerLimit(authHandlers.Register)).Methods("POST")
	authRouter.HandleFunc("/login", loginLimit(authHandlers.Login)).Methods("POST")

	usersRouter := router.PathPrefix("/api/users").Subrouter()
	usersRouter.Use(authenticator.Middleware())
	usersRouter.HandleFunc("/me", userHandlers.Me).Methods("GET")
	usersRouter.Handle("/admin-only",
		authenticator.RequireRole(db.RoleAdmin)(http.HandlerFunc(userHandlers.AdminOnly)),
	).Methods("GET")

	return router
}
