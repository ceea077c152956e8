package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"github.com/coffee-research/coffee/internal/api"
	"github.com/coffee-research/coffee/internal/config"
	dbstore "github.com/coffee-research/coffee/internal/db"
	"github.com/coffee-research/coffee/internal/sessionstore"
)

// openStore opens (creating if needed) the SQLite database and brings its
// schema up to date.
func openStore(cfg config.Config) (api.Store, func() error, error) {
	if cfg.SQLitePath == "" {
		return nil, nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", filepath.ToSlash(cfg.SQLitePath))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	closeDB := func() error { return sqliteDB.Close() }

	if err := dbstore.RunMigrations(sqliteDB, cfg.MigrationsDir); err != nil {
		_ = closeDB()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := dbstore.NewStore(sqliteDB)
	if err != nil {
		_ = closeDB()
		return nil, nil, fmt.Errorf("init sqlite store: %w", err)
	}
	slog.Info("sqlite store ready", slog.String("path", cfg.SQLitePath))
	return store, closeDB, nil
}

// openSessionStore connects to Redis when configured and falls back to an
// in-process store otherwise.
func openSessionStore(ctx context.Context, cfg config.Config) (sessionstore.Store, func() error, error) {
	if !cfg.UseRedis() {
		slog.Info("session store: memory", slog.Duration("ttl", cfg.SessionTTL))
		return sessionstore.NewMemoryStore(cfg.SessionTTL), func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	slog.Info("session store: redis", slog.String("addr", cfg.Redis.Addr), slog.Int("db", cfg.Redis.DB), slog.Duration("ttl", cfg.SessionTTL))
	return sessionstore.NewRedisStore(client, cfg.SessionTTL), client.Close, nil
}
