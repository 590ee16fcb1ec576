package world

import "fmt"

type PauseReason string

const (
	PauseDecision PauseReason = "DECISION"
	PauseModal    PauseReason = "MODAL"
	PauseSubpage  PauseReason = "SUBPAGE"
)

func (r PauseReason) Valid() bool {
	switch r {
	case PauseDecision, PauseModal, PauseSubpage:
		return true
	}
	return false
}

// rank orders pause reasons: a new pause may only replace an active one of
// strictly lower rank, which is what gives DECISION its priority.
func (r PauseReason) rank() int {
	switch r {
	case PauseDecision:
		return 3
	case PauseModal:
		return 2
	case PauseSubpage:
		return 1
	}
	return 0
}

// Pause freezes simulated time. Token is the capability required to resume;
// ExpiresAtMS is a hard wall-clock expiry enforced lazily on next touch.
type Pause struct {
	Reason      PauseReason `json:"reason"`
	Token       string      `json:"token"`
	StartedAtMS int64       `json:"started_at_ms"`
	ExpiresAtMS int64       `json:"expires_at_ms"`
}

func (w *World) Paused() bool {
	return w.Pause != nil
}

// BeginPause freezes simulated time for reason, guarded by token. An active
// pause of equal or higher rank is held, not replaced: in particular nothing
// may displace an active DECISION pause or invalidate its token. A lower
// ranked pause is replaced, with its elapsed stretch excised first so the
// frozen time is billed exactly once.
func (w *World) BeginPause(reason PauseReason, token string, nowMS, ttlMS int64) error {
	if !reason.Valid() {
		return fmt.Errorf("invalid pause reason %q", reason)
	}

	if w.Pause != nil {
		if reason.rank() <= w.Pause.Reason.rank() {
			return ErrAlreadyPaused
		}
		w.excisePause(nowMS)
	}

	w.Pause = &Pause{
		Reason:      reason,
		Token:       token,
		StartedAtMS: nowMS,
		ExpiresAtMS: nowMS + ttlMS,
	}
	return nil
}

// ResumePause clears the pause if token matches the active capability.
func (w *World) ResumePause(token string, nowMS int64) error {
	if w.Pause == nil {
		return ErrNotPaused
	}
	if token == "" || token != w.Pause.Token {
		return ErrPauseToken
	}

	w.excisePause(nowMS)
	return nil
}

// LiftPause clears the pause without a token check. Callers are responsible
// for authorization; the engine only uses this for the MODAL bypass path and
// for resolving a pause's own blocking condition.
func (w *World) LiftPause(nowMS int64) {
	if w.Pause == nil {
		return
	}
	w.excisePause(nowMS)
}

// ExpirePauseIfDue clears an expired pause and reports whether it did.
// Only the stretch up to the expiry is excised: once a pause expires the
// world is running again, and the time since then is billed as live.
func (w *World) ExpirePauseIfDue(nowMS int64) bool {
	if w.Pause == nil || nowMS < w.Pause.ExpiresAtMS {
		return false
	}
	w.excisePause(w.Pause.ExpiresAtMS)
	return true
}

// excisePause shifts the reference clock forward by the paused duration so
// wall time spent paused is removed from simulated time, then clears the
// pause. The duration is clamped to the pause's expiry.
func (w *World) excisePause(nowMS int64) {
	end := nowMS
	if end > w.Pause.ExpiresAtMS {
		end = w.Pause.ExpiresAtMS
	}
	if d := end - w.Pause.StartedAtMS; d > 0 {
		w.LastTickMS += d
	}
	w.Pause = nil
}
