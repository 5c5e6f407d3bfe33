package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeepakDums1998/blog-app-skilldzire/config"
	"github.com/DeepakDums1998/blog-app-skilldzire/config/database"
	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/repository"
	"github.com/DeepakDums1998/blog-app-skilldzire/pkg/logger"
	"github.com/DeepakDums1998/blog-app-skilldzire/router"
	"github.com/DeepakDums1998/blog-app-skilldzire/socket"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Invalid LOG_LEVEL %q: %v", cfg.LogLevel, err)
	}
	defer logger.Sync()
	if !dotenv {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open %s post store: %v", cfg.StoreBackend, err)
	}
	defer closeStore()

	// The hub fans post changes out to websocket subscribers.
	hub := socket.NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(store, hub, cfg.MaxBodyBytes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
		}
	}()

	logger.Sugar.Infof("Posts API (%s store) listening on %s", cfg.StoreBackend, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("Server failed: %v", err)
	}
	logger.Sugar.Info("Server stopped")
}

// openStore connects the configured backend and returns it with its closer.
func openStore(ctx context.Context, cfg *config.Config) (repository.PostStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.ConnectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(db)
		if err := store.Init(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	case config.BackendSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewSQLiteStore(db)
		if err := store.Init(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	case config.BackendRedis:
		client, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisStore(client), func() { client.Close() }, nil

	case config.BackendMemory:
		logger.Sugar.Warn("Using the in-memory post store; posts are lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, errors.New("unknown store backend " + cfg.StoreBackend)
}
