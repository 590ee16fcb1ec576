package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bastionworks/garrison/internal/store"
	"github.com/bastionworks/garrison/internal/world"
)

// Create builds and persists a fresh world for the player.
func (e *Engine) Create(ctx context.Context, playerID string) (*world.World, error) {
	w, err := e.rules.NewWorld(playerID, e.now())
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}
	if err := e.st.CreateWorld(ctx, w, e.now()); err != nil {
		return nil, err
	}
	return w, nil
}

// Snapshot returns the world caught up to the present. This is the access
// that expires stale pauses and advances elapsed days; reading a world is
// never allowed to observe it frozen in the past.
func (e *Engine) Snapshot(ctx context.Context, playerID string) (*world.World, error) {
	return e.mutate(ctx, playerID, func(w *world.World) error {
		return e.catchUpNow(w)
	})
}

// Heartbeat extends the session liveness window. ttl at or below zero takes
// the default. Liveness alone never burns a version.
func (e *Engine) Heartbeat(ctx context.Context, playerID string, ttlMS int64) (*world.World, error) {
	if ttlMS <= 0 {
		ttlMS = e.heartbeatTTLMS
	}
	return e.mutate(ctx, playerID, func(w *world.World) error {
		if err := e.catchUpNow(w); err != nil {
			return err
		}
		w.SessionActiveUntilMS = e.now() + ttlMS
		return nil
	})
}

// Pause freezes simulated time on the player's behalf and returns the
// capability token required to resume. Clients may raise MODAL or SUBPAGE;
// DECISION pauses are raised only by the simulation itself. Raising over an
// equal or higher ranked pause is a conflict; in particular a pending
// council ruling can never be displaced.
func (e *Engine) Pause(ctx context.Context, playerID string, reason world.PauseReason) (string, *world.World, error) {
	if reason != world.PauseModal && reason != world.PauseSubpage {
		return "", nil, fmt.Errorf("pause reason %q: %w", reason, ErrInvalidInput)
	}

	token := uuid.NewString()
	w, err := e.mutate(ctx, playerID, func(w *world.World) error {
		if err := e.catchUpNow(w); err != nil {
			return err
		}
		return w.BeginPause(reason, token, e.now(), e.pauseTTLMS)
	})
	if err != nil {
		return "", nil, err
	}
	return token, w, nil
}

// Resume clears the pause guarded by token. A MODAL pause whose blocking
// condition has independently cleared may be lifted without its token; a
// DECISION pause never may. Resuming a world that is not paused is a no-op
// so a client racing the expiry does not see a spurious failure.
func (e *Engine) Resume(ctx context.Context, playerID, token string) (*world.World, error) {
	return e.mutate(ctx, playerID, func(w *world.World) error {
		if err := e.catchUpNow(w); err != nil {
			return err
		}
		if !w.Paused() {
			return nil
		}

		err := w.ResumePause(token, e.now())
		if err == nil {
			return e.catchUpNow(w)
		}

		// Token mismatch on a MODAL pause is forgiven only if nothing
		// modal is actually outstanding anymore.
		if w.Pause.Reason == world.PauseModal && !w.PendingModal() {
			w.LiftPause(e.now())
			return e.catchUpNow(w)
		}
		return err
	})
}

// expireOnly applies lazy pause expiry without advancing days. Interactive
// answers use this so the gate judges the pause the client actually saw;
// re-raising and day catch-up happen after the answer lands.
func (e *Engine) expireOnly(w *world.World) {
	if w.ExpirePauseIfDue(e.now()) {
		w.Record(world.EventSystem, "The pause lapsed. The watch resumes.")
	}
}

// gateInteraction enforces the pause capability on interactive answers.
// While paused, the exact token is required. Once the pause has expired
// the interaction stands on its own; the answer is still honored.
func gateInteraction(w *world.World, token string) error {
	if !w.Paused() {
		return nil
	}
	if token == "" || token != w.Pause.Token {
		return world.ErrPauseToken
	}
	return nil
}

// resolveInteraction clears the pause held by token after a successful
// answer, then lets time catch up, which may immediately raise the next
// pending interaction.
func (e *Engine) resolveInteraction(w *world.World, token string) error {
	if w.Paused() && token == w.Pause.Token {
		w.LiftPause(e.now())
	}
	return e.catchUpNow(w)
}

// SubmitDecision answers the pending council ruling.
func (e *Engine) SubmitDecision(ctx context.Context, playerID, decisionID, optionID, token string) (*world.World, error) {
	return e.mutate(ctx, playerID, func(w *world.World) error {
		e.expireOnly(w)
		if err := gateInteraction(w, token); err != nil {
			return err
		}
		if err := e.rules.ApplyDecision(w, decisionID, optionID); err != nil {
			return err
		}
		return e.resolveInteraction(w, token)
	})
}

// AcknowledgeCeremony holds the pending commendation ceremony.
func (e *Engine) AcknowledgeCeremony(ctx context.Context, playerID, token string) (*world.World, error) {
	return e.mutate(ctx, playerID, func(w *world.World) error {
		e.expireOnly(w)
		if err := gateInteraction(w, token); err != nil {
			return err
		}
		if err := e.rules.ApplyCeremony(w); err != nil {
			return err
		}
		return e.resolveInteraction(w, token)
	})
}

// AnswerMissionCall accepts or declines the offered patrol call.
func (e *Engine) AnswerMissionCall(ctx context.Context, playerID, missionID string, accept bool, squad []world.Ref, token string) (*world.World, error) {
	return e.mutate(ctx, playerID, func(w *world.World) error {
		e.expireOnly(w)
		if err := gateInteraction(w, token); err != nil {
			return err
		}

		var err error
		if accept {
			err = e.rules.AcceptMission(w, missionID, squad)
		} else {
			err = e.rules.DeclineMission(w, missionID)
		}
		if err != nil {
			return err
		}
		return e.resolveInteraction(w, token)
	})
}

// SetTimeScale adjusts how fast simulated days pass.
func (e *Engine) SetTimeScale(ctx context.Context, playerID string, scale int) (*world.World, error) {
	if !world.ValidTimeScale(scale) {
		return nil, fmt.Errorf("time scale %d is not %d or %d: %w", scale, world.DefaultTimeScale, world.FastTimeScale, ErrInvalidInput)
	}
	return e.mutate(ctx, playerID, func(w *world.World) error {
		if err := e.catchUpNow(w); err != nil {
			return err
		}
		if w.TimeScale != scale {
			w.TimeScale = scale
			w.Record(world.EventSystem, fmt.Sprintf("Time scale set to %dx.", scale))
		}
		return nil
	})
}

// Reset destroys the player's world and starts a fresh one at version 1.
func (e *Engine) Reset(ctx context.Context, playerID string) (*world.World, error) {
	w, err := e.rules.NewWorld(playerID, e.now())
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}
	if err := e.st.ReplaceWorld(ctx, w, e.now()); err != nil {
		return nil, err
	}
	e.notify(ctx, playerID, 0, w.StateVersion)
	return w, nil
}

// TickWorld is the scheduler's entry: catch the world up within budget.
// A budget below one falls back to the engine's default grant.
func (e *Engine) TickWorld(ctx context.Context, playerID string, budget int) (*world.World, error) {
	if budget < 1 {
		budget = e.opBudget
	}
	return e.mutate(ctx, playerID, func(w *world.World) error {
		return e.catchUp(w, budget)
	})
}

// ListLiveness exposes the stored liveness rows to the scheduler.
func (e *Engine) ListLiveness(ctx context.Context) ([]store.Liveness, error) {
	return e.st.ListLiveness(ctx)
}

// RecentBulletins reads the dispatch log, newest first.
func (e *Engine) RecentBulletins(ctx context.Context, playerID string, limit int) ([]store.Bulletin, error) {
	return e.st.RecentBulletins(ctx, playerID, limit)
}

// TrooperHistory reads every generation that held a slot, oldest first.
func (e *Engine) TrooperHistory(ctx context.Context, playerID string, slotNo int) ([]store.TrooperRecord, error) {
	return e.st.TrooperHistory(ctx, playerID, slotNo)
}
