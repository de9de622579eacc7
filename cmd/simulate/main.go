// Package main provides the batch simulator that runs seeded encounters from
// the content roster and reports their outcomes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/observability"
	"github.com/cory-johannsen/brave/internal/simulation"
	"github.com/cory-johannsen/brave/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	seed := flag.Uint64("seed", 0, "base seed; run i uses seed+i (0 = config value or random)")
	runs := flag.Int("runs", 0, "number of encounters (0 = config value)")
	save := flag.Bool("save", false, "persist final snapshots to PostgreSQL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *runs > 0 {
		cfg.Simulation.Runs = *runs
	}
	if *save {
		cfg.Simulation.Save = true
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	content, err := simulation.LoadContent(cfg.Content, cfg.Combat, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	defer content.Close()

	var store simulation.Store
	if cfg.Simulation.Save {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Ready(ctx, 5*time.Second); err != nil {
			logger.Fatal("database not ready; run cmd/migrate first", zap.Error(err))
		}
		store = postgres.NewSnapshotRepository(pool.DB())
		logger.Info("persisting snapshots",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name),
		)
	}

	results, err := simulation.NewRunner(content, cfg.Combat, cfg.Simulation, store, logger).Run(ctx)
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}

	for _, res := range results {
		fmt.Fprintf(os.Stdout, "run=%d seed=%d encounter=%s winner=%s turns=%d ticks=%d survivors=%v\n",
			res.Run, res.Seed, res.EncounterID, res.Outcome.Winner, res.Outcome.Turns, res.Outcome.Ticks, res.Outcome.Survivors)
	}
	s := simulation.Summarize(results)
	fmt.Fprintf(os.Stdout, "runs=%d player_wins=%d enemy_wins=%d draws=%d mean_turns=%.1f breaks=%d [%s]\n",
		s.Runs, s.PlayerWins, s.EnemyWins, s.Draws, s.MeanTurns, s.Breaks, time.Since(start))
}
