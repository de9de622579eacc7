package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/game/ai"
	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/dice"
	"github.com/cory-johannsen/brave/internal/observability"
)

// Store persists finished encounters. *postgres.SnapshotRepository satisfies it.
type Store interface {
	Save(ctx context.Context, encounterID uuid.UUID, records []combat.Record) error
	RecordOutcome(ctx context.Context, encounterID uuid.UUID, seed uint64, out combat.Outcome) error
}

// Result describes one finished run.
type Result struct {
	Run         int
	EncounterID uuid.UUID
	Seed        uint64
	Outcome     combat.Outcome
	// Records are the final combatant snapshots in encounter order.
	Records  []combat.Record
	Events   []combat.DamageEvent
	Canceled []string
	Elapsed  time.Duration
}

// Runner executes cfg.Runs encounters, at most cfg.Parallelism at a time.
type Runner struct {
	content *Content
	balance combat.Balance
	cfg     config.SimulationConfig
	engine  *combat.Engine
	store   Store
	logger  *zap.Logger
}

// NewRunner builds a Runner. store may be nil; it is only used when cfg.Save is set.
//
// Precondition: content and logger must be non-nil; cfg.Runs and cfg.Parallelism >= 1.
func NewRunner(content *Content, balance combat.Balance, cfg config.SimulationConfig, store Store, logger *zap.Logger) *Runner {
	return &Runner{
		content: content,
		balance: balance,
		cfg:     cfg,
		engine:  combat.NewEngine(),
		store:   store,
		logger:  logger,
	}
}

// Run executes every encounter. Run i uses seed cfg.Seed+i; a zero cfg.Seed
// draws a random base seed, which is logged so the batch can be replayed.
//
// Postcondition: On success results are indexed by run. The first failing
// run cancels the rest and its error is returned.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	base := r.cfg.Seed
	if base == 0 {
		base = uint64(dice.NewCryptoSource().Intn(math.MaxInt32)) + 1
	}
	r.logger.Info("simulation starting",
		zap.Uint64("base_seed", base),
		zap.Int("runs", r.cfg.Runs),
		zap.Int("parallelism", r.cfg.Parallelism),
		zap.Strings("players", r.cfg.Players),
		zap.Strings("enemies", r.cfg.Enemies),
	)

	results := make([]Result, r.cfg.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)
	for i := range r.cfg.Runs {
		g.Go(func() error {
			res, err := r.runOne(gctx, i, base+uint64(i))
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, run int, seed uint64) (Result, error) {
	start := time.Now()
	cs, err := r.content.Sides(r.cfg.Players, r.cfg.Enemies)
	if err != nil {
		return Result{}, err
	}

	id := uuid.New()
	logger := observability.EncounterLogger(r.logger, id, run, seed)
	rec := &combat.Recorder{}
	src := ai.NewSource(r.content.Planners, r.content.Skills, logger)
	enc, err := r.engine.StartWithID(id, cs, combat.Deps{
		Balance: r.balance,
		Sources: map[combat.Alignment]combat.DecisionSource{
			combat.AlignPlayer: src,
			combat.AlignEnemy:  src,
		},
		Skills:  r.content.Skills,
		Effects: r.content.Effects,
		Roller:  dice.NewLoggedRoller(dice.NewSeededSource(seed), logger),
		Sink:    combat.MultiSink{rec, combat.NewLogSink(logger)},
		Logger:  logger,
	})
	if err != nil {
		return Result{}, fmt.Errorf("starting encounter: %w", err)
	}
	defer r.engine.End(id)

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	out, err := enc.Run(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("encounter %s: %w", id, err)
	}

	records := make([]combat.Record, 0, len(enc.Combatants()))
	for _, c := range enc.Combatants() {
		records = append(records, combat.Snapshot(c))
	}
	if r.cfg.Save && r.store != nil {
		if err := r.store.Save(ctx, id, records); err != nil {
			return Result{}, fmt.Errorf("saving snapshot: %w", err)
		}
		if err := r.store.RecordOutcome(ctx, id, seed, out); err != nil {
			return Result{}, fmt.Errorf("saving outcome: %w", err)
		}
	}

	elapsed := time.Since(start)
	logger.Info("encounter over",
		zap.String("winner", out.Winner.String()),
		zap.Int("turns", out.Turns),
		zap.Int("ticks", out.Ticks),
		zap.Strings("survivors", out.Survivors),
		zap.Duration("elapsed", elapsed),
	)
	return Result{
		Run:         run,
		EncounterID: id,
		Seed:        seed,
		Outcome:     out,
		Records:     records,
		Events:      rec.Events(),
		Canceled:    rec.Canceled(),
		Elapsed:     elapsed,
	}, nil
}

// Summary aggregates a batch of results.
type Summary struct {
	Runs       int
	PlayerWins int
	EnemyWins  int
	Draws      int
	MeanTurns  float64
	// Breaks counts events that put a combatant into Break.
	Breaks int
}

// Summarize folds results into a Summary.
func Summarize(results []Result) Summary {
	var s Summary
	turns := 0
	for _, res := range results {
		s.Runs++
		switch res.Outcome.Winner {
		case combat.AlignPlayer:
			s.PlayerWins++
		case combat.AlignEnemy:
			s.EnemyWins++
		default:
			s.Draws++
		}
		turns += res.Outcome.Turns
		for _, ev := range res.Events {
			if ev.Break {
				s.Breaks++
			}
		}
	}
	if s.Runs > 0 {
		s.MeanTurns = float64(turns) / float64(s.Runs)
	}
	return s
}
