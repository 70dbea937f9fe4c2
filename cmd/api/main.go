package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"donationfeed/internal/announcements"
	"donationfeed/internal/feed"
	"donationfeed/internal/gateway"
	"donationfeed/internal/http/handlers"
	httpapi "donationfeed/internal/http/httpapi"
	"donationfeed/internal/infra"
	"donationfeed/internal/metrics"
	"donationfeed/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	metrics.Init()

	ctx := context.Background()
	kv, closeKV, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.CacheBackend).Msg("failed to open announcement cache")
	}
	defer closeKV()

	cacheLogger := logger.With().Str("component", "announcements").Logger()
	store := announcements.NewStore(kv, announcements.Options{
		Key:           cfg.AnnouncementKey,
		DefaultAuthor: cfg.DefaultAuthor,
		Logger:        &cacheLogger,
	})
	if seeded, err := store.EnsureDefaults(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not seed announcement cache")
	} else if seeded {
		logger.Info().Msg("announcement cache seeded with defaults")
	}

	gatewayLogger := logger.With().Str("component", "gateway").Logger()
	client := gateway.NewClient(gateway.Options{
		BaseURL:        cfg.DonationAPIBaseURL,
		Logger:         &gatewayLogger,
		RequestTimeout: cfg.GatewayTimeout,
		Location:       cfg.ServerLocation,
	})

	feedLogger := logger.With().Str("component", "feed").Logger()
	app := &handlers.App{
		Feed:          feed.New(client, client, store, feed.WithLogger(&feedLogger)),
		Approver:      client,
		Cache:         store,
		DefaultAuthor: cfg.DefaultAuthor,
		Location:      cfg.ServerLocation,
		Logger:        &logger,
		Now:           time.Now,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMin,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := infra.NewHTTPServer(cfg, router, logger)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("addr", server.Addr()).
		Str("donation_api", cfg.DonationAPIBaseURL).
		Str("cache_backend", cfg.CacheBackend).
		Msg("feed API listening")
	if err := server.Run(runCtx, cfg.ShutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("http server stopped with error")
		return
	}
	logger.Info().Msg("server stopped")
}
