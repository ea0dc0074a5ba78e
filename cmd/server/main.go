package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bikerly/api/internal/auth"
	"github.com/bikerly/api/internal/config"
	"github.com/bikerly/api/internal/db"
	"github.com/bikerly/api/internal/handlers"
	"github.com/bikerly/api/internal/logging"
	"github.com/bikerly/api/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; configuration failures go straight to stderr.
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	logger.Info("Starting Bikerly API server", nil)

	database, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		logger.Error("Failed to open database", err, nil)
		os.Exit(1)
	}
	defer database.Close()

	database.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	database.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	database.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := database.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", err, nil)
		os.Exit(1)
	}

	queries := db.NewQueries(database)
	if err := queries.EnsureSchema(ctx); err != nil {
		logger.Error("Failed to ensure database schema", err, nil)
		os.Exit(1)
	}

	logger.Info("Connected to database", map[string]interface{}{
		"name": cfg.Database.Name,
	})

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm, cfg.Auth.AccessTokenTTL)
	if err != nil {
		logger.Error("Failed to initialize token manager", err, nil)
		os.Exit(1)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Store:        queries,
		Tokens:       tokens,
		Logger:       logger,
		Limiter:      middleware.NewRateLimiter(),
		GlobalCalls:  cfg.RateLimit.Calls,
		GlobalPeriod: cfg.RateLimit.Period,
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", map[string]interface{}{
			"address": addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", err, nil)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err, nil)
	}

	logger.Info("Server stopped", nil)
}
