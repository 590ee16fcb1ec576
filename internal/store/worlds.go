package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bastionworks/garrison/internal/world"
)

// CreateWorld persists a brand new world and its initial roster. The world
// arrives from the rules' factory with StateVersion already at its baseline.
func (s *Store) CreateWorld(ctx context.Context, w *world.World, nowMS int64) error {
	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		if err := insertWorldTx(ctx, tx, w, nowMS); err != nil {
			if IsConstraint(err) {
				return world.ErrWorldExists
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing world creation: %w", err)
		}
		committed = true
		return nil
	})
}

// ReplaceWorld destroys a player's world and every dependent row, then
// recreates it from fresh. It holds the same per-player lock as mutations,
// so a reset can never interleave with an in-flight operation.
func (s *Store) ReplaceWorld(ctx context.Context, w *world.World, nowMS int64) error {
	unlock := s.locks.acquire(w.PlayerID)
	defer unlock()

	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		for _, table := range []string{"deltas", "bulletins", "troopers", "replacement_orders", "worlds"} {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE player_id = ?", table), w.PlayerID); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		if err := insertWorldTx(ctx, tx, w, nowMS); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing world replacement: %w", err)
		}
		committed = true
		return nil
	})
}

func insertWorldTx(ctx context.Context, tx *sqlx.Tx, w *world.World, nowMS int64) error {
	events := w.DrainEvents()

	snapshot, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO worlds (player_id, state_version, last_tick_ms, session_active_until_ms, snapshot, updated_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.PlayerID, w.StateVersion, w.LastTickMS, w.SessionActiveUntilMS, snapshot, nowMS)
	if err != nil {
		return fmt.Errorf("inserting world: %w", err)
	}

	for _, t := range w.Troopers {
		if err := insertTrooperTx(ctx, tx, w.PlayerID, t); err != nil {
			return err
		}
	}

	if len(events) > 0 {
		if err := insertBulletins(ctx, tx, w.PlayerID, events, nowMS); err != nil {
			return err
		}
	}

	return nil
}

// GetWorld loads a world snapshot without taking the lock. Callers that
// intend to mutate must go through WithWorldLock instead.
func (s *Store) GetWorld(ctx context.Context, playerID string) (*world.World, error) {
	var snapshot []byte
	var activeUntil int64
	err := s.db.QueryRowxContext(ctx,
		`SELECT snapshot, session_active_until_ms FROM worlds WHERE player_id = ?`,
		playerID).Scan(&snapshot, &activeUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, world.ErrWorldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	return unmarshalWorld(snapshot, activeUntil)
}

func getWorldTx(ctx context.Context, tx *sqlx.Tx, playerID string) (*world.World, error) {
	var snapshot []byte
	var activeUntil int64
	err := tx.QueryRowxContext(ctx,
		`SELECT snapshot, session_active_until_ms FROM worlds WHERE player_id = ?`,
		playerID).Scan(&snapshot, &activeUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, world.ErrWorldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	return unmarshalWorld(snapshot, activeUntil)
}

// unmarshalWorld decodes a snapshot and overlays the liveness column, which
// heartbeats advance without rewriting the snapshot.
func unmarshalWorld(snapshot []byte, activeUntil int64) (*world.World, error) {
	var w world.World
	if err := json.Unmarshal(snapshot, &w); err != nil {
		return nil, fmt.Errorf("unmarshalling world snapshot: %w", err)
	}
	w.SessionActiveUntilMS = activeUntil
	return &w, nil
}

// Liveness is the scheduler's view of one world: enough to decide whether
// it is actively watched without loading the snapshot.
type Liveness struct {
	PlayerID             string `db:"player_id"`
	SessionActiveUntilMS int64  `db:"session_active_until_ms"`
}

// ListLiveness returns the liveness row for every world.
func (s *Store) ListLiveness(ctx context.Context) ([]Liveness, error) {
	var out []Liveness
	err := s.db.SelectContext(ctx, &out,
		`SELECT player_id, session_active_until_ms FROM worlds ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("listing worlds: %w", err)
	}
	return out, nil
}
