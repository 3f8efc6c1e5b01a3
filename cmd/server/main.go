package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bakesales/internal/config"
	"bakesales/internal/drive"
	"bakesales/internal/files"
	"bakesales/internal/infrastructure"
	"bakesales/internal/service"
	transport "bakesales/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := buildLoader(ctx, cfg, logger)
	if err != nil {
		return err
	}

	analytics, err := service.NewAnalytics(loader, logger, cfg.Analytics)
	if err != nil {
		return fmt.Errorf("failed to create analytics service: %w", err)
	}

	handler := transport.NewHandler(analytics, logger)
	router := transport.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func buildLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.SourceLoader, error) {
	if cfg.Drive.Enabled {
		client, err := drive.NewClientFromFile(ctx, cfg.Drive.CredentialsFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create drive client: %w", err)
		}
		logger.Info("export source: google drive", slog.String("folder_id", cfg.Drive.FolderID))
		return service.DriveSource{Client: client, FolderID: cfg.Drive.FolderID}, nil
	}

	logger.Info("export source: local directory", slog.String("dir", cfg.Paths.DataDir))
	return service.LocalSource{
		Discovery: files.NewDiscovery(""),
		Dir:       cfg.Paths.DataDir,
	}, nil
}
