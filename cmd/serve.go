package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediajenny/the-oracle/src/config"
	"github.com/mediajenny/the-oracle/src/database"
	"github.com/mediajenny/the-oracle/src/handlers"
	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/parsers"
	"github.com/mediajenny/the-oracle/src/processors"
	"github.com/mediajenny/the-oracle/src/security"
	"github.com/mediajenny/the-oracle/src/services"
	"github.com/mediajenny/the-oracle/src/storage"
	"github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const (
	minJWTSecretLength = 32
	shutdownTimeout    = 20 * time.Second
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if servePort != "" {
			cfg.Port = servePort
		}
		logger.L.Info("The Oracle backend server starting...")

		if len(cfg.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET configuration invalid: must be at least %d bytes", minJWTSecretLength)
		}

		logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
		db := database.InitDB(cfg.DatabasePath)
		defer db.Close()
		logger.L.Info("Database initialized successfully.")

		handler, err := buildHandler(cfg, db)
		if err != nil {
			return err
		}

		server := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      handler,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		return runServer(cmd.Context(), server)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

// buildHandler wires storage, services and handlers into the router.
func buildHandler(cfg *config.AppConfig, db *sql.DB) (http.Handler, error) {
	logger.L.Info("Initializing services and handlers...")

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise upload storage: %w", err)
	}
	normalizer, err := parsers.LoadNormalizer(cfg.ColumnAliasesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load column aliases: %w", err)
	}

	reportCache := cache.New(cfg.ReportCacheTTL, services.CacheCleanupInterval)
	authService := security.NewAuthService(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	emailService := services.NewEmailService(cfg)

	userService := services.NewUserService(db, authService)
	uploadService := services.NewUploadService(db, store, normalizer)
	reportService := services.NewReportService(
		db, uploadService, processors.NewReportProcessor(logger.L),
		normalizer, emailService, reportCache, cfg.ShareBaseURL,
	)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	logger.L.Info("Configuring routes...")
	return handlers.NewRouter(handlers.Router{
		Users:   handlers.NewUserHandler(userService),
		Uploads: handlers.NewUploadHandler(uploadService, cfg.MaxUploadSizeBytes),
		Reports: handlers.NewReportHandler(reportService),
		Middlewares: []func(http.Handler) http.Handler{
			handlers.CORSMiddleware(cfg.AllowedOrigins),
			handlers.RateLimitMiddleware(limiter),
		},
	}), nil
}

// runServer serves until SIGINT/SIGTERM, then drains in-flight requests.
func runServer(ctx context.Context, server *http.Server) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("Server starting", "address", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.L.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.L.Info("Server stopped gracefully.")
	return nil
}
