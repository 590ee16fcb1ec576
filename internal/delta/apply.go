package delta

import (
	"encoding/json"
	"fmt"

	"github.com/bastionworks/garrison/internal/world"
)

// Apply applies a single patch to w. Bulletin patches are a display feed,
// not state, and applying one is a no-op.
func Apply(w *world.World, p Patch) error {
	switch p.Kind {
	case KindWorldCore:
		var c core
		if err := json.Unmarshal(p.Body, &c); err != nil {
			return fmt.Errorf("unmarshalling %s patch: %w", p.Kind, err)
		}
		w.LastTickMS = c.LastTickMS
		w.CurrentDay = c.CurrentDay
		w.TimeScale = c.TimeScale
		w.Funds = c.Funds
		w.Morale = c.Morale
		w.Rank = c.Rank
		w.CommandAuthority = c.CommandAuthority
		w.RosterCapacity = c.RosterCapacity
		w.NextCouncilDay = c.NextCouncilDay
		w.NextCeremonyDay = c.NextCeremonyDay
		w.NextMissionDay = c.NextMissionDay

	case KindPause:
		var v *world.Pause
		if err := json.Unmarshal(p.Body, &v); err != nil {
			return fmt.Errorf("unmarshalling %s patch: %w", p.Kind, err)
		}
		w.Pause = v

	case KindTrooper:
		var t world.Trooper
		if err := json.Unmarshal(p.Body, &t); err != nil {
			return fmt.Errorf("unmarshalling %s patch: %w", p.Kind, err)
		}
		w.InstallTrooper(&t)

	case KindReplacementQueue:
		var q []world.ReplacementOrder
		if err := json.Unmarshal(p.Body, &q); err != nil {
			return fmt.Errorf("unmarshalling %s patch: %w", p.Kind, err)
		}
		w.Replacements = q

	case KindMission:
		var v *world.Mission
		if err := json.Unmarshal(p.Body, &v); err != nil {
			return fmt.Errorf("unmarshalling %s patch: %w", p.Kind, err)
		}
		w.Mission = v

	case KindDecision:
		var v *world.Decision
		if err := json.Unmarshal(p.Body, &v); err != nil {
			return fmt.Errorf("unmarshalling %s patch: %w", p.Kind, err)
		}
		w.Decision = v

	case KindCeremony:
		var v *world.Ceremony
		if err := json.Unmarshal(p.Body, &v); err != nil {
			return fmt.Errorf("unmarshalling %s patch: %w", p.Kind, err)
		}
		w.Ceremony = v

	case KindExtension:
		var v world.ExtensionState
		if err := json.Unmarshal(p.Body, &v); err != nil {
			return fmt.Errorf("unmarshalling %s patch: %w", p.Kind, err)
		}
		w.Extensions = v

	case KindBulletin:
		// display-only

	default:
		return fmt.Errorf("unknown patch kind %q", p.Kind)
	}

	return nil
}

// ApplyDelta applies every patch of d to w and advances w's version to the
// delta's target.
func ApplyDelta(w *world.World, d *Delta) error {
	for _, p := range d.Patches {
		if err := Apply(w, p); err != nil {
			return err
		}
	}
	w.StateVersion = d.ToVersion
	return nil
}

// Bulletins extracts the events carried by a delta's bulletin patch, if any.
func Bulletins(d *Delta) ([]world.Event, error) {
	for _, p := range d.Patches {
		if p.Kind != KindBulletin {
			continue
		}
		var ev []world.Event
		if err := json.Unmarshal(p.Body, &ev); err != nil {
			return nil, fmt.Errorf("unmarshalling bulletin patch: %w", err)
		}
		return ev, nil
	}
	return nil, nil
}
