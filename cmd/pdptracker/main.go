package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"pdptracker/internal/assistant"
	"pdptracker/internal/backend"
	"pdptracker/internal/cli"
	"pdptracker/internal/config"
	"pdptracker/internal/core"
	apphttp "pdptracker/internal/http"
	"pdptracker/internal/log"
	"pdptracker/internal/roster"
	"pdptracker/internal/services"
	"pdptracker/internal/state"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	people, err := roster.Load(cfg.RosterFile)
	if err != nil {
		logger.Error("Failed to load roster", log.FieldError, err, "path", cfg.RosterFile)
		os.Exit(1)
	}
	prices, err := cfg.Prices()
	if err != nil {
		logger.Error("Invalid price table", log.FieldError, err)
		os.Exit(1)
	}

	result, err := openBackend(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	records := services.NewRecordService(result.Store, result.Publisher)
	store := state.New(records, core.NewAggregator(people, prices), state.Options{
		SeedHistorical: cfg.SeedHistorical,
	})
	if err := store.Load(context.Background()); err != nil {
		logger.Error("Failed to load records", log.FieldError, err)
		os.Exit(1)
	}

	deps := apphttp.Deps{State: store, Ping: result.Ping}
	if gw, err := newGateway(context.Background(), cfg); err != nil {
		logger.Error("Failed to initialize assistant", log.FieldError, err, log.FieldProvider, cfg.AssistantProvider)
		os.Exit(1)
	} else if gw != nil {
		deps.Analyzer = gw
		deps.AnalyzeCache = gw.Cache()
	} else {
		logger.Info("Assistant disabled")
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		TrustedProxies:   cfg.TrustedProxies,
		RateLimit:        cfg.RateLimit,
		AnalyzeRateLimit: cfg.AnalyzeRateLimit,
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting pdptracker server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"mirror", result.Publisher != nil,
		"roster", len(people))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func openBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bcfg)
}

// newGateway returns nil when no provider is configured.
func newGateway(ctx context.Context, cfg *config.Config) (*assistant.Gateway, error) {
	var provider assistant.Provider
	switch cfg.AssistantProvider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderAnthropic:
		provider = assistant.NewAnthropicProvider(assistant.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			BaseURL: cfg.AnthropicBaseURL,
			Model:   cfg.AnthropicModel,
		})
	case config.ProviderGemini:
		p, err := assistant.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, errors.New("unknown assistant provider " + cfg.AssistantProvider)
	}
	return assistant.NewGateway(provider,
		assistant.WithMaxTokens(cfg.AssistantMaxTokens),
		assistant.WithCache(cfg.AssistantCacheSize, cfg.AssistantCacheTTL),
	), nil
}
