// Package bootstrap wires the process-level runtime shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Migrate applies the schema before returning.
	Migrate bool
	// SeedDemo loads the built-in demo fixtures into an empty database.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally migrates and seeds.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return nil, nil, err
		}
	}

	if opts.SeedDemo {
		if err := seedDemo(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// seedDemo applies the demo fixtures unless users already exist.
func seedDemo(ctx context.Context, db *gorm.DB) error {
	var users int64
	if err := db.WithContext(ctx).Table("users").Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.InfoContext(ctx, "demo seed skipped, database not empty", slog.Int64("users", users))
		return nil
	}

	fx, err := seed.DemoFixtures()
	if err != nil {
		return err
	}
	return seed.NewSeeder(db, seed.Options{}).ApplyFixtures(ctx, fx)
}
