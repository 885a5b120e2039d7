// Package main is the entry point for the stockfolio API server. It reads
// configuration, builds the logger, and hands off to internal/server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/mystockfolio/backend/internal/server"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the real environment and the file simply doesn't exist.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	dbPath := "data/stockfolio.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET is mandatory — every auth surface issues tokens.
	// Generate one with: openssl rand -hex 32
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	marketDataURL := os.Getenv("MARKET_DATA_URL")
	if marketDataURL == "" {
		marketDataURL = "http://localhost:8090"
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	cfg := server.Config{
		Port:          port,
		DBPath:        dbPath,
		JWTSecret:     jwtSecret,
		MarketDataURL: marketDataURL,
		FrontendURL:   frontendURL,
		AppName:       "MyStockFolio",
		Google:        oauthCredentials("GOOGLE", port),
		Naver:         oauthCredentials("NAVER", port),
		Kakao:         oauthCredentials("KAKAO", port),
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// oauthCredentials reads one provider's registration from
// {PREFIX}_CLIENT_ID / {PREFIX}_CLIENT_SECRET / {PREFIX}_CALLBACK_URL,
// defaulting the callback to this server's own /auth/{provider}/callback.
func oauthCredentials(prefix string, port int) server.OAuthCredentials {
	providerPath := map[string]string{
		"GOOGLE": "google",
		"NAVER":  "naver",
		"KAKAO":  "kakao",
	}[prefix]

	callback := os.Getenv(prefix + "_CALLBACK_URL")
	if callback == "" {
		callback = fmt.Sprintf("http://localhost:%d/auth/%s/callback", port, providerPath)
	}

	return server.OAuthCredentials{
		ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		CallbackURL:  callback,
	}
}
