package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bastionworks/garrison/internal/world"
)

// Bulletin is one line of the garrison's dispatch log as stored.
type Bulletin struct {
	Seq  int64  `db:"seq" json:"seq"`
	Day  int    `db:"day" json:"day"`
	Kind string `db:"kind" json:"kind"`
	Text string `db:"text" json:"text"`
	TSMS int64  `db:"ts_ms" json:"ts_ms"`
}

func insertBulletins(ctx context.Context, tx *sqlx.Tx, playerID string, events []world.Event, nowMS int64) error {
	var seq int64
	err := tx.QueryRowxContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM bulletins WHERE player_id = ?`, playerID).Scan(&seq)
	if err != nil {
		return fmt.Errorf("reading bulletin sequence: %w", err)
	}

	for _, ev := range events {
		seq++
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bulletins (player_id, seq, day, kind, text, ts_ms) VALUES (?, ?, ?, ?, ?, ?)`,
			playerID, seq, ev.Day, ev.Kind, ev.Text, nowMS)
		if err != nil {
			return fmt.Errorf("inserting bulletin: %w", err)
		}
	}
	return nil
}

func (s *Store) pruneBulletins(ctx context.Context, tx *sqlx.Tx, playerID string) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM bulletins
		 WHERE player_id = ?
		   AND seq <= (SELECT COALESCE(MAX(seq), 0) FROM bulletins WHERE player_id = ?) - ?`,
		playerID, playerID, s.bulletinKeep)
	if err != nil {
		return fmt.Errorf("pruning bulletins: %w", err)
	}
	return nil
}

// RecentBulletins returns up to limit bulletins, newest first.
func (s *Store) RecentBulletins(ctx context.Context, playerID string, limit int) ([]Bulletin, error) {
	if limit <= 0 {
		limit = s.bulletinKeep
	}
	var out []Bulletin
	err := s.db.SelectContext(ctx, &out,
		`SELECT seq, day, kind, text, ts_ms FROM bulletins
		 WHERE player_id = ? ORDER BY seq DESC LIMIT ?`,
		playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading bulletins: %w", err)
	}
	return out, nil
}
