package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"daftar/internal/assistant"
	"daftar/internal/backend"
	"daftar/internal/cache"
	"daftar/internal/cli"
	"daftar/internal/config"
	apphttp "daftar/internal/http"
	"daftar/internal/llm"
	"daftar/internal/log"
	"daftar/internal/middleware/ratelimit"
	"daftar/internal/telegram"
)

const (
	cacheSweepInterval = 5 * time.Minute
	shutdownTimeout    = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Daftar stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Daftar stopped gracefully", log.FieldOperation, log.OpShutdown)
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	// Validate already checked both.
	taxonomy, _ := cfg.Taxonomy()
	loc, _ := cfg.Location()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if store.Cleanup == nil {
			return
		}
		if err := store.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	model, err := backend.NewModel(ctx, backend.LLMConfigFromAppConfig(cfg))
	if err != nil {
		return err
	}

	engine := assistant.New(llm.New(model, taxonomy), store.Store, assistant.Config{
		Taxonomy:           taxonomy,
		DefaultCurrency:    cfg.DefaultCurrency,
		ConfirmWrites:      cfg.ConfirmWrites,
		MaxPersistAttempts: cfg.MaxPersistAttempts,
		PendingTTL:         cfg.PendingTTL,
		MaxPendingSessions: cfg.MaxPendingSessions,
		RequestTimeout:     cfg.RequestTimeout,
		Location:           loc,
	}, assistant.WithLogger(logger))

	chatLimiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	apiLimiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(engine.PendingStore())
	caches.Register(chatLimiter)
	caches.Register(apiLimiter)

	srv := apphttp.NewServer(":"+cfg.Port, engine, store.Store,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimiter(apiLimiter),
		apphttp.WithLocation(loc),
		apphttp.WithCurrency(cfg.DefaultCurrency),
		apphttp.WithReadiness(func(ctx context.Context) error {
			_, err := store.Store.Query(ctx)
			return err
		}),
	)

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewFromToken(cfg.TelegramToken, engine,
			telegram.WithAllowedUser(cfg.AllowedUserID),
			telegram.WithTranscriber(model),
			telegram.WithRateLimiter(chatLimiter),
			telegram.WithLogger(logger),
		)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, chat transport disabled")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return caches.Run(ctx, cacheSweepInterval)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port, "backend", backendCfg.Type.String(),
			"events", store.Publishing, log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if bot != nil {
		g.Go(func() error {
			return bot.Run(ctx)
		})
	}

	return g.Wait()
}
