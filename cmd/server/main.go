// Package main is the entry point for the aurabetz server.
//
// CONFIGURATION:
// Everything comes from environment variables. A .env file in the working
// directory is loaded first if present; real environment variables win.
//
//	PORT                  listen port (default 8080)
//	DB_PATH               SQLite file (default data/aurabetz.db)
//	JWT_SECRET            session signing secret, at least 16 chars (required)
//	SESSION_TTL           session lifetime, e.g. "72h" (default 168h)
//	GOOGLE_CLIENT_ID      OAuth client id
//	GOOGLE_CLIENT_SECRET  OAuth client secret
//	GOOGLE_CALLBACK_URL   default http://localhost:$PORT/auth/google/callback
//	REDIS_ADDR            enables the redis revocation store
//	REDIS_PASSWORD
//	ADMIN_KEY_HASH        bcrypt hash from cmd/adminkey; enables publishing
//	LOG_LEVEL             debug | info | warn | error (default info)
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/aurabetz/internal/server"
)

func main() {
	// A missing .env is normal in production.
	envErr := godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("failed to load .env", slog.String("error", envErr.Error()))
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		logger.Warn("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, sign-in will fail")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig() (server.Config, error) {
	cfg := server.Config{
		Port:               8080,
		DBPath:             envOr("DB_PATH", "data/aurabetz.db"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		AdminKeyHash:       os.Getenv("ADMIN_KEY_HASH"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("SESSION_TTL %q: %w", v, err)
		}
		if ttl <= 0 {
			return cfg, fmt.Errorf("SESSION_TTL must be positive, got %s", v)
		}
		cfg.SessionTTL = ttl
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}

	cfg.GoogleCallbackURL = envOr("GOOGLE_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port))

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
