// Package main applies, reverts, or inspects the encounter snapshot schema.
//
// Usage:
//
//	migrate -direction up|down [-steps N]
//	migrate -direction version
//	migrate -direction force -version N
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/observability"
	"github.com/cory-johannsen/brave/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "migrations", "directory holding the migration files")
	direction := flag.String("direction", "up", "up, down, version, or force")
	steps := flag.Int("steps", 0, "number of steps for up/down (0 = all)")
	version := flag.Int("version", -2, "version to record for -direction force (-1 = none applied)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	mg, err := postgres.NewMigrator(*dir, cfg.Database, logger)
	if err != nil {
		logger.Fatal("opening migrations", zap.String("dir", *dir), zap.Error(err))
	}
	defer func() {
		if err := mg.Close(); err != nil {
			logger.Warn("closing migrator", zap.Error(err))
		}
	}()

	switch *direction {
	case "up":
		err = mg.Up(*steps)
	case "down":
		err = mg.Down(*steps)
	case "force":
		if *version < -1 {
			logger.Fatal("force requires -version >= -1", zap.Int("version", *version))
		}
		err = mg.Force(*version)
	case "version":
	default:
		logger.Fatal("invalid direction", zap.String("direction", *direction))
	}
	if err != nil {
		logger.Error("migration failed", zap.String("direction", *direction), zap.Error(err))
		os.Exit(1)
	}

	v, dirty, err := mg.Version()
	if err != nil {
		logger.Error("reading schema version", zap.Error(err))
		os.Exit(1)
	}
	ready := !dirty && v >= postgres.RequiredSchemaVersion
	fmt.Fprintf(os.Stdout, "version=%d dirty=%v snapshot_schema_ready=%v [%s]\n", v, dirty, ready, time.Since(start))
}
