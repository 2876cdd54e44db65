package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bunnyburrow/boardweb/internal"
	"github.com/bunnyburrow/boardweb/internal/api"
	"github.com/bunnyburrow/boardweb/internal/handler"
	"github.com/bunnyburrow/boardweb/internal/metrics"
	"github.com/bunnyburrow/boardweb/internal/middleware"
	"github.com/bunnyburrow/boardweb/internal/pagemode"
	"github.com/bunnyburrow/boardweb/internal/pagination"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Upstream API client
	client := api.New(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger,
	})
	logger.Info("Upstream API configured", "base_url", cfg.APIBaseURL)

	// Initialize template renderer
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		TemplatesDir: "web/templates",
		Logger:       logger,
		IsDev:        cfg.Env == "development",
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// Page-mode resolver for the board form
	resolver := pagemode.NewResolver(client, client, logger)

	// Pagination policies: the board list pages in fixed groups, the admin
	// user list is configurable (sliding by default)
	boardPager := pagination.Config{Size: cfg.PageWindow, Policy: pagination.PolicyFixedGroup}
	userPager := pagination.Config{Size: cfg.PageWindow, Policy: pagination.PolicySliding}
	if cfg.UserPaging == "fixed" {
		userPager.Policy = pagination.PolicyFixedGroup
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(client, logger, isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	csrfMw := middleware.NewCSRFMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	authLimiter := middleware.NewAuthRateLimiter(logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(client, authLimiter, renderer, logger, isSecure)
	boardHandler := handler.NewBoardHandler(client, resolver, renderer, logger, boardPager, cfg.PageSize, isSecure)
	userHandler := handler.NewUserHandler(client, renderer, logger, userPager, cfg.PageSize, isSecure)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	staticFS := http.FileServer(http.Dir("web/static"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFS))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// The board list is the landing page
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path
		if r.URL.Path != "/" {
			handler.NotFoundResponse(w, r, logger)
			return
		}
		http.Redirect(w, r, "/boards", http.StatusSeeOther)
	})

	// Auth routes (public - no auth required)
	authHandler.RegisterRoutes(mux)

	// Middleware stacks for protected routes. The viewer is resolved by the
	// outer stack on every request, so these only enforce.
	requireUser := middleware.Stack(authMw.RequireUser)
	requireAdmin := middleware.Stack(authMw.RequireUser, authMw.RequireAdmin)

	boardHandler.RegisterRoutes(mux, requireUser)
	userHandler.RegisterRoutes(mux, requireUser, requireAdmin)

	// Outer middleware: security headers, metrics, request logging, viewer
	// resolution, CSRF validation on mutations
	root := middleware.Stack(
		securityMw.Handler,
		metrics.Middleware,
		loggingMw.Handler,
		authMw.WithUser,
		csrfMw.Protect,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
