package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kintone-catalog/internal/config"
	"kintone-catalog/internal/handler"
	"kintone-catalog/internal/imageproxy"
	"kintone-catalog/internal/repository"
	"kintone-catalog/internal/router"
	"kintone-catalog/internal/service"
	"kintone-catalog/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().
		Str("kintone", cfg.Kintone.BaseURL).
		Str("app_id", cfg.Kintone.AppID).
		Bool("guest_space", cfg.Kintone.GuestSpaceID != "").
		Msg("starting kintone catalog server")

	// Initialize upstream clients, one pool per upstream
	kintoneClientConfig := repository.DefaultClientConfig()
	kintoneClientConfig.Timeout = cfg.Kintone.Timeout
	kintoneClient := repository.NewHTTPClient(kintoneClientConfig)

	imageClientConfig := repository.DefaultClientConfig()
	imageClientConfig.Timeout = cfg.Image.FetchTimeout
	imageClient := repository.NewHTTPClient(imageClientConfig)

	// Initialize repositories
	recordRepo := repository.NewRecordRepository(
		kintoneClient,
		cfg.Kintone.RecordsEndpoint(),
		cfg.Kintone.AppID,
		cfg.Kintone.APIToken,
		cfg.Fields,
		logger,
	)

	// Initialize image fetcher
	fetcher := imageproxy.NewFetcher(imageClient, imageproxy.FetcherConfig{
		Timeout:  cfg.Image.FetchTimeout,
		MaxBytes: cfg.Image.MaxBytes,
	}, logger)

	// Initialize services
	catalogService := service.NewCatalogService(recordRepo, cfg.Layout.ImageFields, logger)
	imageService := service.NewImageService(fetcher, logger)

	// Initialize HTTP handlers
	catalogHandler := handler.NewCatalogHandler(catalogService, cfg.Layout, cfg.Fields, logger)
	imageHandler := handler.NewImageHandler(imageService, logger)

	// Initialize router
	mux := router.New(catalogHandler, imageHandler, web.Static(), logger)

	// Create HTTP server. The write timeout leaves room for a full image
	// fetch before the relay response is written.
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Image.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		kintoneClient.CloseIdleConnections()
		imageClient.CloseIdleConnections()
		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
