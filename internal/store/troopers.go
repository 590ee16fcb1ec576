package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bastionworks/garrison/internal/world"
)

func insertTrooperTx(ctx context.Context, tx *sqlx.Tx, playerID string, t *world.Trooper) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshalling trooper: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO troopers (player_id, slot_no, generation, name, status, body, is_current, installed_day)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		playerID, t.SlotNo, t.Generation, t.Name, string(t.Status), body, t.InstalledDay)
	if err != nil {
		return fmt.Errorf("inserting trooper slot %d gen %d: %w", t.SlotNo, t.Generation, err)
	}
	return nil
}

// projectRoster keeps the troopers table in step with the snapshot. A slot
// whose generation advanced retires the old row first so the partial
// uniqueness index on current rows holds.
func projectRoster(ctx context.Context, tx *sqlx.Tx, before, after *world.World) error {
	prev := make(map[int]*world.Trooper, len(before.Troopers))
	for _, t := range before.Troopers {
		prev[t.SlotNo] = t
	}

	for _, t := range after.Troopers {
		old, existed := prev[t.SlotNo]
		switch {
		case !existed:
			if err := insertTrooperTx(ctx, tx, after.PlayerID, t); err != nil {
				return err
			}
		case old.Generation == t.Generation:
			oldBody, err := json.Marshal(old)
			if err != nil {
				return fmt.Errorf("marshalling trooper: %w", err)
			}
			newBody, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("marshalling trooper: %w", err)
			}
			if bytes.Equal(oldBody, newBody) {
				continue
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE troopers SET name = ?, status = ?, body = ?
				 WHERE player_id = ? AND slot_no = ? AND generation = ?`,
				t.Name, string(t.Status), newBody, after.PlayerID, t.SlotNo, t.Generation)
			if err != nil {
				return fmt.Errorf("updating trooper slot %d: %w", t.SlotNo, err)
			}
		case t.Generation > old.Generation:
			_, err := tx.ExecContext(ctx,
				`UPDATE troopers SET is_current = 0, retired_day = ?
				 WHERE player_id = ? AND slot_no = ? AND is_current = 1`,
				after.CurrentDay, after.PlayerID, t.SlotNo)
			if err != nil {
				return fmt.Errorf("retiring trooper slot %d: %w", t.SlotNo, err)
			}
			if err := insertTrooperTx(ctx, tx, after.PlayerID, t); err != nil {
				return err
			}
		default:
			return fmt.Errorf("trooper slot %d generation went backwards (%d -> %d)", t.SlotNo, old.Generation, t.Generation)
		}
		delete(prev, t.SlotNo)
	}

	// Slots that vanished from the roster entirely.
	for slot := range prev {
		_, err := tx.ExecContext(ctx,
			`UPDATE troopers SET is_current = 0, retired_day = ?
			 WHERE player_id = ? AND slot_no = ? AND is_current = 1`,
			after.CurrentDay, after.PlayerID, slot)
		if err != nil {
			return fmt.Errorf("retiring trooper slot %d: %w", slot, err)
		}
	}

	return nil
}

func projectReplacements(ctx context.Context, tx *sqlx.Tx, before, after *world.World) error {
	beforeJSON, err := json.Marshal(before.Replacements)
	if err != nil {
		return fmt.Errorf("marshalling replacement queue: %w", err)
	}
	afterJSON, err := json.Marshal(after.Replacements)
	if err != nil {
		return fmt.Errorf("marshalling replacement queue: %w", err)
	}
	if bytes.Equal(beforeJSON, afterJSON) {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM replacement_orders WHERE player_id = ?`, after.PlayerID); err != nil {
		return fmt.Errorf("clearing replacement orders: %w", err)
	}
	for _, r := range after.Replacements {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO replacement_orders (player_id, slot_no, due_day, enqueued_day) VALUES (?, ?, ?, ?)`,
			after.PlayerID, r.SlotNo, r.DueDay, r.EnqueuedDay)
		if err != nil {
			return fmt.Errorf("inserting replacement order for slot %d: %w", r.SlotNo, err)
		}
	}
	return nil
}

// TrooperRecord is one generation of one slot as recorded in the roster
// history. Body carries the full trooper snapshot at its last update.
type TrooperRecord struct {
	SlotNo       int             `db:"slot_no" json:"slot_no"`
	Generation   int             `db:"generation" json:"generation"`
	Name         string          `db:"name" json:"name"`
	Status       string          `db:"status" json:"status"`
	Body         json.RawMessage `db:"body" json:"body"`
	IsCurrent    bool            `db:"is_current" json:"is_current"`
	InstalledDay int             `db:"installed_day" json:"installed_day"`
	RetiredDay   *int            `db:"retired_day" json:"retired_day,omitempty"`
}

// TrooperHistory returns every generation that ever held a slot, oldest
// first. KIA troopers stay visible here after their replacement arrives.
func (s *Store) TrooperHistory(ctx context.Context, playerID string, slotNo int) ([]TrooperRecord, error) {
	var out []TrooperRecord
	err := s.db.SelectContext(ctx, &out,
		`SELECT slot_no, generation, name, status, body, is_current, installed_day, retired_day
		 FROM troopers WHERE player_id = ? AND slot_no = ?
		 ORDER BY generation ASC`,
		playerID, slotNo)
	if err != nil {
		return nil, fmt.Errorf("loading trooper history: %w", err)
	}
	return out, nil
}
