package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/catalog"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
	}()

	registry, err := identity.OpenRegistry(ctx, res.Store)
	if err != nil {
		logger.Error("Failed to load identity registry", log.FieldError, err)
		os.Exit(1)
	}

	deps := apphttp.Deps{
		Store:    res.Store,
		Registry: registry,
		Catalog:  services.NewCatalogView(catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout)),
		Ready:    res.Ready,
	}
	if res.Publisher != nil {
		deps.Publisher = res.Publisher
	}

	srv := apphttp.NewServer(cfg.Addr(), deps, apphttp.Options{
		Logger:             logger,
		SessionTTL:         cfg.SessionTTL,
		MaxSessions:        cfg.MaxSessions,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      cfg.SecureCookies,
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"catalog_url", cfg.CatalogURL,
		"events", cfg.AMQPEnabled())

	err = cli.Run(ctx, logger, 30*time.Second,
		func(context.Context) error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		srv.Shutdown)
	if err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
