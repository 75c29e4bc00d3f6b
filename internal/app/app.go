package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App owns the process-wide connection handles. Components receive them by
// injection from here; nothing in the tree holds ambient connection state.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
}

// NewApp connects to Redis and, when the config carries a DB URL, to
// Postgres. Both connections retry with exponential backoff.
func NewApp(cfg *config.Config) (*App, error) {
	rdb, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Redis: rdb}

	if cfg.DBUrl != "" {
		pool, err := connectDB(cfg.DBUrl)
		if err != nil {
			rdb.Close()
			return nil, err
		}
		a.DB = pool
	}

	return a, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("Database connection closed.")
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Error closing Redis client")
		} else {
			utils.Logger.Info("Redis connection closed.")
		}
	}
}

func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  connectTimeout,
		ReadTimeout:  cfg.StoreTimeout,
		WriteTimeout: cfg.StoreTimeout,
	})

	backoff := initialBackoff
	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			utils.Logger.Infof("Successfully connected to Redis on attempt %d", i)
			return rdb, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed to connect to Redis on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		if i == maxRetries {
			rdb.Close()
			return nil, fmt.Errorf("unable to connect to Redis after %d attempts: %w", maxRetries, err)
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return rdb, nil
}

func connectDB(databaseURL string) (*pgxpool.Pool, error) {
	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		dbPool, err = newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("Successfully connected to database on attempt %d", i)
			return dbPool, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed to connect to database on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		if i == maxRetries {
			return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return dbPool, nil
}

// newDBPool constructs the pgx pool with production-safe settings.
func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return pgxpool.ConnectConfig(ctx, cfg)
}
