// Package storage selects the catalog backend named by configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/domain"
	"restaurant_finder/internal/shared"
	"restaurant_finder/internal/storage/memory"
	mysqlrepo "restaurant_finder/internal/storage/mysql"
)

type Stores struct {
	Restaurants domain.RestaurantStore
	Categories  domain.CategoryStore
	Reviews     domain.ReviewStore
	close       func() error
}

func (s Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects the backend selected by cfg.Store.
func Open(ctx context.Context, cfg shared.Config) (Stores, error) {
	switch cfg.Store {
	case "memory":
		db := memory.New()
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return Stores{Restaurants: db.Restaurants(), Categories: db.Categories(), Reviews: db.Reviews()}, nil
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return Stores{}, fmt.Errorf("sql.Open: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return Stores{}, fmt.Errorf("db ping: %w", err)
		}
		log.Info().Msg("database connection ok")

		repo := mysqlrepo.New(db)
		return Stores{
			Restaurants: repo.Restaurants(),
			Categories:  repo.Categories(),
			Reviews:     repo.Reviews(),
			close:       db.Close,
		}, nil
	}
	return Stores{}, fmt.Errorf("unknown store %q", cfg.Store)
}
