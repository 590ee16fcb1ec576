package world

import (
	"encoding/json"
	"fmt"
)

const (
	DefaultRosterCapacity = 12
	DefaultTimeScale      = 1
	FastTimeScale         = 3
)

// ValidTimeScale reports whether n is a supported clock multiplier. Only
// normal speed and fast forward exist; intermediate values are rejected.
func ValidTimeScale(n int) bool {
	return n == DefaultTimeScale || n == FastTimeScale
}

// World is one player's complete persistent game state. It is loaded,
// mutated, and persisted as a unit; StateVersion identifies its position
// in the mutation history.
type World struct {
	PlayerID     string `json:"player_id"`
	StateVersion int64  `json:"state_version"`
	CreatedAtMS  int64  `json:"created_at_ms"`

	// LastTickMS anchors simulated time to the wall clock. CurrentDay is
	// materialized from it on every load or tick, never inferred by clients.
	LastTickMS int64 `json:"last_tick_ms"`
	CurrentDay int   `json:"current_day"`
	TimeScale  int   `json:"time_scale"`

	// SessionActiveUntilMS is heartbeat liveness, used by the scheduler to
	// deprioritize idle worlds. It is the one field excluded from version
	// significance; see Canonical.
	SessionActiveUntilMS int64 `json:"session_active_until_ms"`

	Pause *Pause `json:"pause,omitempty"`

	Funds            int    `json:"funds"`
	Morale           int    `json:"morale"`
	Rank             string `json:"rank"`
	CommandAuthority int    `json:"command_authority"`

	RosterCapacity int                `json:"roster_capacity"`
	Troopers       []*Trooper         `json:"troopers"`
	Replacements   []ReplacementOrder `json:"replacements,omitempty"`

	Mission  *Mission  `json:"mission,omitempty"`
	Decision *Decision `json:"decision,omitempty"`
	Ceremony *Ceremony `json:"ceremony,omitempty"`

	NextCouncilDay  int `json:"next_council_day"`
	NextCeremonyDay int `json:"next_ceremony_day"`
	NextMissionDay  int `json:"next_mission_day"`

	// Extensions is opaque state owned by rule collaborators, persisted
	// atomically with the rest of the snapshot.
	Extensions ExtensionState `json:"extensions,omitempty"`

	// Events is a transient outbox: rules append entries during a mutation
	// and the store drains them into the bulletin log at commit. A persisted
	// snapshot never carries events.
	Events []Event `json:"events,omitempty"`
}

// Canonical returns the byte form used for change detection. Every field a
// client can observe contributes; only the mutation envelope (StateVersion)
// and session liveness are zeroed, so heartbeats alone never force a version
// bump.
func (w *World) Canonical() ([]byte, error) {
	c := *w
	c.StateVersion = 0
	c.SessionActiveUntilMS = 0

	b, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshalling world: %w", err)
	}
	return b, nil
}

// Clone returns a deep copy via the JSON form, the same representation used
// for persistence and diffing.
func (w *World) Clone() (*World, error) {
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshalling world: %w", err)
	}

	var c World
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshalling world copy: %w", err)
	}
	return &c, nil
}

// TrooperAt returns the current occupant of slot, or nil if the slot has
// never been filled.
func (w *World) TrooperAt(slot int) *Trooper {
	for _, t := range w.Troopers {
		if t.SlotNo == slot {
			return t
		}
	}
	return nil
}

// Resolve maps a (slot, generation) reference to the current occupant.
// References to a prior generation are detectably stale, never aliased to
// the replacement occupant.
func (w *World) Resolve(ref Ref) (*Trooper, error) {
	t := w.TrooperAt(ref.SlotNo)
	if t == nil || t.Generation != ref.Generation {
		return nil, ErrStaleRef
	}
	return t, nil
}

// InstallTrooper places t into its slot, replacing any current occupant.
// The roster is kept ordered by slot number.
func (w *World) InstallTrooper(t *Trooper) {
	for i, cur := range w.Troopers {
		if cur.SlotNo == t.SlotNo {
			w.Troopers[i] = t
			return
		}
		if cur.SlotNo > t.SlotNo {
			w.Troopers = append(w.Troopers[:i], append([]*Trooper{t}, w.Troopers[i:]...)...)
			return
		}
	}
	w.Troopers = append(w.Troopers, t)
}

// CountByStatus returns the number of roster entries in the given status.
func (w *World) CountByStatus(status TrooperStatus) int {
	n := 0
	for _, t := range w.Troopers {
		if t.Status == status {
			n++
		}
	}
	return n
}

// EnqueueReplacement records that a slot's occupant needs replacing on
// dueDay. A slot has at most one outstanding order.
func (w *World) EnqueueReplacement(slot, dueDay int) {
	for _, r := range w.Replacements {
		if r.SlotNo == slot {
			return
		}
	}
	w.Replacements = append(w.Replacements, ReplacementOrder{
		SlotNo:      slot,
		DueDay:      dueDay,
		EnqueuedDay: w.CurrentDay,
	})
}

// DueReplacements returns the orders due on or before day.
func (w *World) DueReplacements(day int) []ReplacementOrder {
	var due []ReplacementOrder
	for _, r := range w.Replacements {
		if r.DueDay <= day {
			due = append(due, r)
		}
	}
	return due
}

// RemoveReplacement drops the order for slot, if any.
func (w *World) RemoveReplacement(slot int) {
	for i, r := range w.Replacements {
		if r.SlotNo == slot {
			w.Replacements = append(w.Replacements[:i], w.Replacements[i+1:]...)
			return
		}
	}
}

// PendingModal reports whether a modal blocking condition is outstanding.
// A MODAL pause may only be bypassed without its token once this is false.
func (w *World) PendingModal() bool {
	if w.Ceremony != nil {
		return true
	}
	return w.Mission != nil && w.Mission.Status == MissionOffered
}
