package engine

import (
	"context"
	"fmt"

	"github.com/bastionworks/garrison/internal/delta"
	"github.com/bastionworks/garrison/internal/world"
)

// SyncResult is the answer to "what happened since version N". Exactly one
// of World or Delta is set when there is anything to say: World on a full
// resync, Delta when the retained log covers the client's gap. A client at
// the current version gets neither, just the version confirmation.
type SyncResult struct {
	FullSync       bool         `json:"full_sync"`
	CurrentVersion int64        `json:"current_version"`
	World          *world.World `json:"world,omitempty"`
	Delta          *delta.Delta `json:"delta,omitempty"`
}

// SyncSince reports the changes a client at version since has missed. It is
// a pure read of committed history: no catch-up, no locks. Clients that are
// ahead of the store (stale world replaced by a reset) and clients whose gap
// outruns the retained delta log both fall back to a full snapshot.
func (e *Engine) SyncSince(ctx context.Context, playerID string, since int64) (*SyncResult, error) {
	w, err := e.st.GetWorld(ctx, playerID)
	if err != nil {
		return nil, err
	}
	current := w.StateVersion

	if since <= 0 || since > current {
		return &SyncResult{FullSync: true, CurrentVersion: current, World: w}, nil
	}
	if since == current {
		return &SyncResult{CurrentVersion: current}, nil
	}

	deltas, err := e.st.DeltasSince(ctx, playerID, since)
	if err != nil {
		return nil, err
	}

	// The merged delta must cover since -> current without holes. Pruning
	// eats the oldest entries first, so a hole always shows at the front.
	if len(deltas) == 0 || deltas[0].FromVersion != since || int64(len(deltas)) != current-since {
		return &SyncResult{FullSync: true, CurrentVersion: current, World: w}, nil
	}

	merged, err := delta.Merge(deltas)
	if err != nil {
		return nil, fmt.Errorf("merging deltas for %q: %w", playerID, err)
	}

	return &SyncResult{CurrentVersion: current, Delta: &merged}, nil
}
