package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bastionworks/garrison/internal/delta"
)

func (s *Store) insertDelta(ctx context.Context, tx *sqlx.Tx, playerID string, d delta.Delta) error {
	patches, err := json.Marshal(d.Patches)
	if err != nil {
		return fmt.Errorf("marshalling patches: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO deltas (player_id, to_version, from_version, ts_ms, patches) VALUES (?, ?, ?, ?, ?)`,
		playerID, d.ToVersion, d.FromVersion, d.TSMS, patches)
	if err != nil {
		return fmt.Errorf("inserting delta: %w", err)
	}
	return nil
}

// pruneDeltas drops log entries older than the retention window so the
// table stays bounded no matter how long a world runs.
func (s *Store) pruneDeltas(ctx context.Context, tx *sqlx.Tx, playerID string, newest int64) error {
	if newest <= int64(s.deltaWindow) {
		return nil
	}
	cutoff := newest - int64(s.deltaWindow)
	_, err := tx.ExecContext(ctx,
		`DELETE FROM deltas WHERE player_id = ? AND to_version <= ?`,
		playerID, cutoff)
	if err != nil {
		return fmt.Errorf("pruning deltas: %w", err)
	}
	return nil
}

type deltaRow struct {
	FromVersion int64  `db:"from_version"`
	ToVersion   int64  `db:"to_version"`
	TSMS        int64  `db:"ts_ms"`
	Patches     []byte `db:"patches"`
}

// DeltasSince returns every retained delta with to_version > since, oldest
// first. Gaps caused by pruning show up as a chain break; the caller is
// expected to fall back to a full snapshot when the chain does not start
// at since+1.
func (s *Store) DeltasSince(ctx context.Context, playerID string, since int64) ([]delta.Delta, error) {
	var rows []deltaRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT from_version, to_version, ts_ms, patches
		 FROM deltas WHERE player_id = ? AND to_version > ?
		 ORDER BY to_version ASC`,
		playerID, since)
	if err != nil {
		return nil, fmt.Errorf("loading deltas: %w", err)
	}

	out := make([]delta.Delta, 0, len(rows))
	for _, r := range rows {
		var patches []delta.Patch
		if err := json.Unmarshal(r.Patches, &patches); err != nil {
			return nil, fmt.Errorf("unmarshalling delta %d: %w", r.ToVersion, err)
		}
		out = append(out, delta.Delta{
			FromVersion: r.FromVersion,
			ToVersion:   r.ToVersion,
			TSMS:        r.TSMS,
			Patches:     patches,
		})
	}
	return out, nil
}
