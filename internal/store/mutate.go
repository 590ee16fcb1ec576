package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bastionworks/garrison/internal/delta"
	"github.com/bastionworks/garrison/internal/world"
)

// MutateFunc edits a world in place under the player's lock. Returning an
// error abandons the transaction; nothing the function did is persisted.
type MutateFunc func(w *world.World) error

// WithWorldLock runs fn against the player's world inside a single write
// transaction. The per-player lock serializes callers in this process, and
// the optimistic version guard catches anything that slips past it.
//
// If fn leaves the world unchanged, nothing is written and the version
// stays put. A change bumps the version by exactly one, appends the delta
// describing it, and re-projects the roster tables.
func (s *Store) WithWorldLock(ctx context.Context, playerID string, nowMS int64, fn MutateFunc) (*world.World, error) {
	unlock := s.locks.acquire(playerID)
	defer unlock()

	var out *world.World
	err := s.withRetry(ctx, func() error {
		w, err := s.runMutation(ctx, playerID, nowMS, fn)
		if err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) runMutation(ctx context.Context, playerID string, nowMS int64, fn MutateFunc) (*world.World, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	w, err := getWorldTx(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}

	before, err := w.Clone()
	if err != nil {
		return nil, err
	}
	beforeSig, err := w.Canonical()
	if err != nil {
		return nil, err
	}

	if err := fn(w); err != nil {
		return nil, err
	}

	if w.PlayerID != before.PlayerID || w.CreatedAtMS != before.CreatedAtMS {
		return nil, fmt.Errorf("mutation altered world identity for %q", before.PlayerID)
	}

	afterSig, err := w.Canonical()
	if err != nil {
		return nil, err
	}

	if bytes.Equal(beforeSig, afterSig) {
		// No substantive change. Heartbeats still need their liveness
		// window persisted, but without burning a version.
		if w.SessionActiveUntilMS != before.SessionActiveUntilMS {
			if err := s.updateLiveness(ctx, tx, w, nowMS); err != nil {
				return nil, err
			}
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("committing liveness update: %w", err)
			}
			committed = true
		}
		return w, nil
	}

	patches, err := delta.Diff(before, w)
	if err != nil {
		return nil, err
	}

	w.StateVersion = before.StateVersion + 1
	events := w.DrainEvents()

	snapshot, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshalling snapshot: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE worlds
		 SET state_version = ?, last_tick_ms = ?, session_active_until_ms = ?, snapshot = ?, updated_at_ms = ?
		 WHERE player_id = ? AND state_version = ?`,
		w.StateVersion, w.LastTickMS, w.SessionActiveUntilMS, snapshot, nowMS,
		playerID, before.StateVersion)
	if err != nil {
		return nil, fmt.Errorf("updating world: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking update: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("world %q superseded at version %d", playerID, before.StateVersion)
	}

	if err := projectRoster(ctx, tx, before, w); err != nil {
		return nil, err
	}
	if err := projectReplacements(ctx, tx, before, w); err != nil {
		return nil, err
	}

	d := delta.Delta{
		FromVersion: before.StateVersion,
		ToVersion:   w.StateVersion,
		TSMS:        nowMS,
		Patches:     patches,
	}
	if err := s.insertDelta(ctx, tx, playerID, d); err != nil {
		return nil, err
	}
	if err := s.pruneDeltas(ctx, tx, playerID, w.StateVersion); err != nil {
		return nil, err
	}

	if len(events) > 0 {
		if err := insertBulletins(ctx, tx, playerID, events, nowMS); err != nil {
			return nil, err
		}
		if err := s.pruneBulletins(ctx, tx, playerID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing mutation: %w", err)
	}
	committed = true
	return w, nil
}

func (s *Store) updateLiveness(ctx context.Context, tx *sqlx.Tx, w *world.World, nowMS int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE worlds SET session_active_until_ms = ?, updated_at_ms = ? WHERE player_id = ?`,
		w.SessionActiveUntilMS, nowMS, w.PlayerID)
	if err != nil {
		return fmt.Errorf("updating session liveness: %w", err)
	}
	return nil
}
