package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "restaurant_finder/internal/adapters/http_server"
	kafkaad "restaurant_finder/internal/adapters/kafka"
	"restaurant_finder/internal/adapters/observability"
	redisad "restaurant_finder/internal/adapters/redis"
	"restaurant_finder/internal/app"
	"restaurant_finder/internal/domain"
	"restaurant_finder/internal/shared"
	"restaurant_finder/internal/storage"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("open store failed")
	}
	defer stores.Close()

	// optional deps; left as nil interfaces when disabled
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; caching disabled")
			_ = rc.Close()
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	var events domain.ReviewEvents
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafkaad.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer pub.Close()
		events = pub
	}

	search := app.NewSearchService(stores.Restaurants)
	q := app.NewQueryService(stores.Restaurants, stores.Categories, stores.Reviews, cache, cfg.CacheTTL)
	catalog := app.NewCatalogService(stores.Restaurants, stores.Categories, stores.Reviews, cache, events)

	// http
	srv := server.New(cfg.CORSOrigins)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(
		&server.Handlers{Search: search, Q: q, Catalog: catalog},
		server.WriteGuard{Tokens: cfg.APITokens, RPS: cfg.WriteRPS, Burst: cfg.WriteBurst},
	)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("store", cfg.Store).
			Bool("cache", cache != nil).
			Bool("events", events != nil).
			Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
