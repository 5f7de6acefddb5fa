package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"restaurant_finder/internal/adapters/observability"
	redisad "restaurant_finder/internal/adapters/redis"
	"restaurant_finder/internal/app"
	"restaurant_finder/internal/domain"
	"restaurant_finder/internal/shared"
	"restaurant_finder/internal/storage"
)

// rerate recomputes every restaurant's rating from its stored reviews.
func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("store", cfg.Store).Int("workers", cfg.RerateWorkers).Msg("rerate starting")

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store failed")
	}
	defer stores.Close()

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err == nil {
			defer rc.Close()
			cache = rc
		} else {
			log.Warn().Err(err).Msg("redis unavailable; cached restaurants expire by TTL")
			_ = rc.Close()
		}
	}

	catalog := app.NewCatalogService(stores.Restaurants, stores.Categories, stores.Reviews, cache, nil)

	rs, err := stores.Restaurants.FindAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list restaurants failed")
	}

	sem := semaphore.NewWeighted(int64(cfg.RerateWorkers))
	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, r := range rs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("rerate interrupted")
			break
		}

		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer sem.Release(1)

			rating, err := catalog.RefreshRating(ctx, id)
			if err != nil {
				failed.Add(1)
				log.Warn().Int64("restaurant_id", id).Err(err).Msg("rerate failed")
				return
			}
			log.Debug().Int64("restaurant_id", id).Str("rating", rating).Msg("rerate ok")
		}(r.ID)
	}

	wg.Wait()
	log.Info().Int("restaurants", len(rs)).Int64("failed", failed.Load()).Msg("rerate completed")
	if failed.Load() > 0 {
		os.Exit(1)
	}
}
