package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/stats"
)

// ErrSnapshotNotFound is returned when an encounter has no stored snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// EncounterSummary is the stored result row of an encounter.
type EncounterSummary struct {
	ID     uuid.UUID
	Seed   uint64
	Winner combat.Alignment
	// Finished is false until RecordOutcome has been called.
	Finished bool
	Turns    int
	Ticks    int
}

// snapshotDetail holds the Record fields kept in the detail JSONB column.
type snapshotDetail struct {
	Base      stats.StatBlock    `json:"base"`
	Equipment stats.StatBlock    `json:"equipment"`
	Skills    []string           `json:"skills"`
	Domain    string             `json:"domain"`
	Cast      *combat.CastRecord `json:"cast,omitempty"`
}

// SnapshotRepository persists combatant snapshots per encounter.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save replaces the stored snapshot of encounterID with records in one
// transaction. Rows are upserted by combatant ID and combatants absent from
// records are removed.
//
// Precondition: every record must have a non-empty, unique ID.
// Postcondition: Load(encounterID) returns records in the same order.
func (r *SnapshotRepository) Save(ctx context.Context, encounterID uuid.UUID, records []combat.Record) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO encounters (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET updated_at = NOW()`,
		encounterID,
	); err != nil {
		return fmt.Errorf("upserting encounter: %w", err)
	}

	ids := make([]string, 0, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("saving snapshot: record %d has empty id", i)
		}
		detail, err := json.Marshal(snapshotDetail{
			Base:      rec.Base,
			Equipment: rec.Equipment,
			Skills:    rec.Skills,
			Domain:    rec.Domain,
			Cast:      rec.Cast,
		})
		if err != nil {
			return fmt.Errorf("encoding snapshot detail for %q: %w", rec.ID, err)
		}
		effects := rec.Effects
		if effects == nil {
			effects = []combat.EffectRecord{}
		}
		effectsJSON, err := json.Marshal(effects)
		if err != nil {
			return fmt.Errorf("encoding effects for %q: %w", rec.ID, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO combatant_snapshots
				(encounter_id, combatant_id, position, name, alignment,
				 max_hp, current_hp, brave, max_brave, broken, break_turns,
				 gauge, removed, detail, effects)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			ON CONFLICT (encounter_id, combatant_id) DO UPDATE SET
				position = EXCLUDED.position, name = EXCLUDED.name,
				alignment = EXCLUDED.alignment, max_hp = EXCLUDED.max_hp,
				current_hp = EXCLUDED.current_hp, brave = EXCLUDED.brave,
				max_brave = EXCLUDED.max_brave, broken = EXCLUDED.broken,
				break_turns = EXCLUDED.break_turns, gauge = EXCLUDED.gauge,
				removed = EXCLUDED.removed, detail = EXCLUDED.detail,
				effects = EXCLUDED.effects, updated_at = NOW()`,
			encounterID, rec.ID, i, rec.Name, rec.Alignment.String(),
			rec.MaxHP, rec.CurrentHP, rec.Brave, rec.MaxBrave, rec.Broken, rec.BreakTurns,
			rec.Gauge, rec.Removed, detail, effectsJSON,
		); err != nil {
			return fmt.Errorf("upserting snapshot %q: %w", rec.ID, err)
		}
		ids = append(ids, rec.ID)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM combatant_snapshots
		WHERE encounter_id = $1 AND NOT (combatant_id = ANY($2))`,
		encounterID, ids,
	); err != nil {
		return fmt.Errorf("pruning snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load returns the stored records of encounterID in their saved order.
//
// Postcondition: Returns ErrSnapshotNotFound if nothing is stored.
func (r *SnapshotRepository) Load(ctx context.Context, encounterID uuid.UUID) ([]combat.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT combatant_id, name, alignment, max_hp, current_hp, brave, max_brave,
		       broken, break_turns, gauge, removed, detail, effects
		FROM combatant_snapshots WHERE encounter_id = $1 ORDER BY position ASC`,
		encounterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []combat.Record
	for rows.Next() {
		var (
			rec                 combat.Record
			align               string
			detailJSON, effJSON []byte
			detail              snapshotDetail
		)
		if err := rows.Scan(
			&rec.ID, &rec.Name, &align, &rec.MaxHP, &rec.CurrentHP, &rec.Brave, &rec.MaxBrave,
			&rec.Broken, &rec.BreakTurns, &rec.Gauge, &rec.Removed, &detailJSON, &effJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		if rec.Alignment, err = combat.ParseAlignment(align); err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", rec.ID, err)
		}
		if err := json.Unmarshal(detailJSON, &detail); err != nil {
			return nil, fmt.Errorf("decoding snapshot detail for %q: %w", rec.ID, err)
		}
		if err := json.Unmarshal(effJSON, &rec.Effects); err != nil {
			return nil, fmt.Errorf("decoding effects for %q: %w", rec.ID, err)
		}
		if len(rec.Effects) == 0 {
			rec.Effects = nil
		}
		rec.Base = detail.Base
		rec.Equipment = detail.Equipment
		rec.Skills = detail.Skills
		rec.Domain = detail.Domain
		rec.Cast = detail.Cast
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return out, nil
}

// Delete removes the encounter and all of its snapshots.
//
// Postcondition: Returns ErrSnapshotNotFound if the encounter was not stored.
func (r *SnapshotRepository) Delete(ctx context.Context, encounterID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM encounters WHERE id = $1`, encounterID)
	if err != nil {
		return fmt.Errorf("deleting encounter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

// RecordOutcome stores the seed and result of a finished encounter.
//
// Postcondition: Summary(encounterID) reports Finished.
func (r *SnapshotRepository) RecordOutcome(ctx context.Context, encounterID uuid.UUID, seed uint64, out combat.Outcome) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO encounters (id, seed, winner, turns, ticks) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			seed = EXCLUDED.seed, winner = EXCLUDED.winner,
			turns = EXCLUDED.turns, ticks = EXCLUDED.ticks, updated_at = NOW()`,
		encounterID, int64(seed), out.Winner.String(), out.Turns, out.Ticks,
	)
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

// Summary returns the stored result row of encounterID.
//
// Postcondition: Returns ErrSnapshotNotFound if the encounter was not stored.
func (r *SnapshotRepository) Summary(ctx context.Context, encounterID uuid.UUID) (EncounterSummary, error) {
	var (
		s      EncounterSummary
		seed   int64
		winner *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, seed, winner, turns, ticks FROM encounters WHERE id = $1`,
		encounterID,
	).Scan(&s.ID, &seed, &winner, &s.Turns, &s.Ticks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EncounterSummary{}, ErrSnapshotNotFound
		}
		return EncounterSummary{}, fmt.Errorf("querying encounter: %w", err)
	}
	s.Seed = uint64(seed)
	if winner != nil {
		s.Finished = true
		// A draw is stored as "none", which ParseAlignment rejects.
		s.Winner, _ = combat.ParseAlignment(*winner)
	}
	return s, nil
}
