// Package server wires the application together: repositories into
// services, services into handlers, handlers onto routes. It is the
// composition root — nothing else in the codebase constructs cross-layer
// dependencies.
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
	"github.com/go-chi/cors"

	"github.com/mystockfolio/backend/internal/auth"
	"github.com/mystockfolio/backend/internal/handler"
	"github.com/mystockfolio/backend/internal/market"
	"github.com/mystockfolio/backend/internal/middleware"
	sqliteRepo "github.com/mystockfolio/backend/internal/repository/sqlite"
	"github.com/mystockfolio/backend/internal/service"
	"github.com/mystockfolio/backend/internal/wallet"
)

// OAuthCredentials holds one provider's client registration. A provider
// with an empty ClientID is considered unconfigured and its routes return
// 404.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Config holds server configuration, loaded by cmd/server from the
// environment.
type Config struct {
	Port          int
	DBPath        string
	JWTSecret     string
	MarketDataURL string
	FrontendURL   string
	AppName       string

	Google OAuthCredentials
	Naver  OAuthCredentials
	Kakao  OAuthCredentials
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. Each layer receives only what
// it needs: services get repository interfaces, handlers get services,
// the router gets handlers.
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
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}

	// Repositories share the one connection pool.
	users := sqliteRepo.NewUserRepo(s.db)
	portfolios := sqliteRepo.NewPortfolioRepo(s.db)
	assets := sqliteRepo.NewAssetRepo(s.db)

	// Services.
	authService := service.NewAuthService(users, auth.NewPasswordService(), tokens, s.logger)
	walletService := service.NewWalletService(
		wallet.NewRegistry(s.config.AppName),
		wallet.NewVerifier(),
		users,
		tokens,
		s.logger,
	)
	portfolioService := service.NewPortfolioService(portfolios, assets, s.logger)
	dashboardService := service.NewDashboardService(
		portfolios,
		market.NewClient(s.config.MarketDataURL, s.logger),
	)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService, s.oauthProviders(), s.config.FrontendURL, s.logger)
	walletHandler := handler.NewWalletHandler(walletService, s.logger)
	portfolioHandler := handler.NewPortfolioHandler(portfolioService, s.logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, s.logger)

	// Global middleware, in execution order.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The SPA runs on its own origin during development, so the API must
	// answer preflights. Credentials are allowed for the cookie-based flows.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// OAuth redirect flow (browser-facing, no auth).
	s.router.Get("/auth/{provider}/login", authHandler.HandleOAuthLogin)
	s.router.Get("/auth/{provider}/callback", authHandler.HandleOAuthCallback)

	s.router.Route("/api", func(r chi.Router) {
		// Public auth endpoints.
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/metamask/nonce", walletHandler.HandleNonce)
		r.Post("/auth/metamask/verify", walletHandler.HandleVerify)

		// Everything below requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/auth/me", authHandler.HandleMe)
			r.Post("/auth/oauth2/complete", authHandler.HandleCompleteOAuth2)

			r.Get("/portfolios", portfolioHandler.HandleList)
			r.Post("/portfolios", portfolioHandler.HandleCreate)
			r.Get("/portfolios/{id}", portfolioHandler.HandleGet)
			r.Put("/portfolios/{id}", portfolioHandler.HandleRename)
			r.Delete("/portfolios/{id}", portfolioHandler.HandleDelete)
			r.Get("/portfolios/{id}/assets", portfolioHandler.HandleListAssets)
			r.Post("/portfolios/{id}/assets", portfolioHandler.HandleAddAsset)
			r.Put("/assets/{assetId}", portfolioHandler.HandleUpdateAsset)
			r.Delete("/assets/{assetId}", portfolioHandler.HandleDeleteAsset)

			r.Get("/dashboard/stats", dashboardHandler.HandleStats)
		})
	})

	return nil
}

// oauthProviders builds the configured social-login providers. Providers
// without credentials are simply absent; their routes 404.
func (s *Server) oauthProviders() map[string]*auth.Provider {
	providers := make(map[string]*auth.Provider)

	if s.config.Google.ClientID != "" {
		providers["google"] = auth.NewGoogleProvider(
			s.config.Google.ClientID, s.config.Google.ClientSecret, s.config.Google.CallbackURL)
	}
	if s.config.Naver.ClientID != "" {
		providers["naver"] = auth.NewNaverProvider(
			s.config.Naver.ClientID, s.config.Naver.ClientSecret, s.config.Naver.CallbackURL)
	}
	if s.config.Kakao.ClientID != "" {
		providers["kakao"] = auth.NewKakaoProvider(
			s.config.Kakao.ClientID, s.config.Kakao.ClientSecret, s.config.Kakao.CallbackURL)
	}
	if len(providers) == 0 {
		s.logger.Warn("no OAuth2 providers configured — social login is disabled")
	}
	return providers
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// close the database (flushes the WAL, releases the file lock).
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
			slog.String("marketData", s.config.MarketDataURL),
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
