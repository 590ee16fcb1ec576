package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// DeltaNotifier announces committed world versions on per-player subjects.
// Delivery is best-effort: the durable delta log is the source of truth,
// the announcement only tells a connected client it is worth pulling.
type DeltaNotifier struct {
	server *NatsServer
}

func NewDeltaNotifier(server *NatsServer) *DeltaNotifier {
	return &DeltaNotifier{server: server}
}

// DeltaSubject is the per-player subject carrying version announcements.
func DeltaSubject(playerID string) string {
	return fmt.Sprintf("world.%s.delta", playerID)
}

type deltaAnnouncement struct {
	Version int64 `json:"version"`
}

// NotifyDelta publishes the new version. Failures are logged, never
// surfaced; a commit must not depend on a subscriber.
func (p *DeltaNotifier) NotifyDelta(ctx context.Context, playerID string, version int64) {
	data, err := json.Marshal(deltaAnnouncement{Version: version})
	if err != nil {
		slog.WarnContext(ctx, "encoding delta announcement", "player", playerID, "error", err)
		return
	}
	if err := p.server.Publish(DeltaSubject(playerID), data); err != nil {
		slog.WarnContext(ctx, "publishing delta announcement", "player", playerID, "error", err)
	}
}
