package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DeepakDums1998/blog-app-skilldzire/config"
	"github.com/DeepakDums1998/blog-app-skilldzire/pkg/logger"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Ping attempts and the pause between them. Variables so tests can shorten them.
var (
	pingAttempts = 5
	pingBackoff  = 2 * time.Second
)

// ConnectPostgres opens the Postgres pool and waits until it answers a ping.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := waitFor(ctx, "postgres", db.PingContext); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens the SQLite file. A single connection serialises writers
// and keeps ":memory:" databases consistent across calls.
func OpenSQLite(ctx context.Context, cfg config.SQLiteConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	logger.Sugar.Infof("Opened sqlite database at %s", cfg.Path)
	return db, nil
}

// ConnectRedis builds a client and waits until the server answers PING.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	err := waitFor(ctx, "redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// waitFor retries ping a few times in case of temporary DNS/network blips.
func waitFor(ctx context.Context, name string, ping func(context.Context) error) error {
	var err error
	for i := 0; i < pingAttempts; i++ {
		if err = ping(ctx); err == nil {
			logger.Sugar.Infof("Successfully connected to %s", name)
			return nil
		}
		if i == pingAttempts-1 {
			break
		}
		logger.Sugar.Infof("%s connection failed, retrying in %s... (%v)", name, pingBackoff, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingBackoff):
		}
	}
	return fmt.Errorf("could not connect to %s after %d attempts: %w", name, pingAttempts, err)
}
