package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ignite/reachpoint/internal/config"
	"github.com/ignite/reachpoint/internal/pkg/logger"
	"github.com/ignite/reachpoint/internal/storage"
)

// migrate creates the kv_entries table used by the postgres storage backend.
func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	dsn := cfg.Storage.DatabaseURL
	if dsn == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := storage.OpenPostgres(ctx, dsn)
	if err != nil {
		logger.Error("connect failed", "error", err.Error())
		os.Exit(1)
	}
	defer pg.DB().Close()
	logger.Info("connected to database")

	if _, err := pg.DB().ExecContext(ctx, storage.Schema); err != nil {
		logger.Error("migration failed", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("migrations complete", "table", "kv_entries")
}
