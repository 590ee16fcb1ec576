package engine

import (
	"github.com/google/uuid"

	"github.com/bastionworks/garrison/internal/world"
)

// catchUp advances the world to the present: expire a stale pause, re-raise
// any pending interaction, then simulate elapsed days until caught up, the
// budget runs out, or a new interaction freezes time.
//
// The budget is in rule-defined day cost, not days, and a budget at or
// below zero means unbounded. At least one day always advances when due,
// so a world whose single day exceeds the budget still makes progress
// instead of stalling forever.
func (e *Engine) catchUp(w *world.World, budget int) error {
	now := e.now()

	if w.ExpirePauseIfDue(now) {
		w.Record(world.EventSystem, "The pause lapsed. The watch resumes.")
	}

	e.raisePending(w, now)
	if w.Paused() {
		return nil
	}

	consumed := 0
	for {
		if w.PendingDays(now, e.dayLengthMS) <= 0 {
			return nil
		}

		cost := e.rules.DayCost(w)
		if budget > 0 && consumed > 0 && consumed+cost > budget {
			return nil
		}

		w.AdvanceDay(e.dayLengthMS)
		if err := e.rules.RunDay(w); err != nil {
			return err
		}
		consumed += cost

		e.raisePending(w, now)
		if w.Paused() {
			return nil
		}
	}
}

// catchUpNow catches the world fully up to the present. Foreground
// operations always reach "now"; only the background scheduler is bounded.
func (e *Engine) catchUpNow(w *world.World) error {
	return e.catchUp(w, 0)
}

// raisePending freezes time behind whichever interaction is outstanding.
// A council ruling outranks modal content: while a decision is pending the
// pause is always DECISION, and modal conditions wait their turn.
func (e *Engine) raisePending(w *world.World, now int64) {
	if w.Paused() {
		return
	}

	switch {
	case w.Decision != nil:
		_ = w.BeginPause(world.PauseDecision, uuid.NewString(), now, e.pauseTTLMS)
	case w.PendingModal():
		_ = w.BeginPause(world.PauseModal, uuid.NewString(), now, e.pauseTTLMS)
	}
}
