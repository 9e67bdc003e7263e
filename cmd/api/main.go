package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"textile-store/internal/config"
	"textile-store/internal/database"
	"textile-store/internal/handler"
	"textile-store/internal/imagestore"
	"textile-store/internal/jobs"
	"textile-store/internal/middleware"
	"textile-store/internal/notify"
	"textile-store/internal/repository"
	"textile-store/internal/router"
	"textile-store/internal/service"
	"textile-store/internal/session"
	"textile-store/internal/view"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("image_backend", cfg.Images.Backend).Msg("starting textile-store server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	images, err := imagestore.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	// Repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	sessionRepo := repository.NewSessionRepository(pool, logger)

	sessions := session.NewManager(cfg.Auth, sessionRepo, logger)
	hub := notify.NewHub(logger)
	defer hub.Close()

	// Services
	productService := service.NewProductService(productRepo, images, cfg.Images.MaxBytes, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, hub, logger)

	pages, err := view.NewRenderer(logger)
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	handlers := router.Handlers{
		Products: handler.NewProductHandler(productService, cfg.Images.MaxBytes, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Pages:    handler.NewPageHandler(productService, orderService, pages, logger),
		Auth:     handler.NewAuthHandler(sessions, pages, cfg.Auth.SecureCookie, logger),
		Health:   handler.Health(pool, logger),
		Live:     hub,
	}
	if cfg.Images.Backend != config.ImageBackendInline && cfg.Images.UploadDir != "" {
		handlers.Uploads = imagestore.UploadsHandler(cfg.Images.UploadDir)
	}

	mux := router.New(
		handlers,
		middleware.NewAuthenticator(sessions, cfg.Auth.APIKey, logger),
		middleware.NewRateLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst, logger),
		logger,
	)

	scheduler, err := jobs.New(sessions, images, productRepo, cfg.Images.OrphanGrace, logger)
	if err != nil {
		return fmt.Errorf("failed to schedule jobs: %w", err)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("scheduled jobs did not finish before shutdown")
		}

		// Websocket connections are hijacked and not tracked by Shutdown.
		hub.Close()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
