package rules

import (
	"fmt"

	"github.com/bastionworks/garrison/internal/world"
)

// ApplyDecision answers the pending council ruling with the chosen option
// and applies its effects.
func (s *Set) ApplyDecision(w *world.World, decisionID, optionID string) error {
	d := w.Decision
	if d == nil {
		return world.ErrNoPendingDecision
	}
	if d.ID != decisionID {
		return fmt.Errorf("decision %q: %w", decisionID, world.ErrNoPendingDecision)
	}

	opt := d.Option(optionID)
	if opt == nil {
		return fmt.Errorf("option %q on decision %q: %w", optionID, decisionID, world.ErrUnknownOption)
	}

	// Effects live in the catalog, not the snapshot. If content changed
	// between raise and answer, the ruling still clears, just without
	// stat effects.
	if spec := s.councilCatalog()[d.ID]; spec != nil {
		for _, o := range spec.Options {
			if o.ID == opt.ID {
				w.Funds += o.Effect.Funds
				w.Morale = clamp(w.Morale+o.Effect.Morale, 0, 100)
				w.CommandAuthority = max(w.CommandAuthority+o.Effect.Authority, 0)
				break
			}
		}
	}

	w.Record(world.EventCouncil, fmt.Sprintf("Ruling on %s: %s.", d.Topic, opt.Label))
	w.Decision = nil
	return nil
}

// ApplyCeremony holds the pending commendation ceremony. Honorees lost
// since the ceremony was called are skipped, not honored posthumously.
func (s *Set) ApplyCeremony(w *world.World) error {
	c := w.Ceremony
	if c == nil {
		return world.ErrNoPendingCeremony
	}

	honored := 0
	for _, ref := range c.Honorees {
		t, err := w.Resolve(ref)
		if err != nil || t.Status == world.StatusKIA {
			continue
		}
		t.Commendations++
		honored++
	}

	if honored > 0 {
		w.Morale = clamp(w.Morale+2*honored, 0, 100)
		w.Record(world.EventCeremony, fmt.Sprintf("Commendations awarded to %d troopers.", honored))
	} else {
		w.Record(world.EventCeremony, "The ceremony concludes quietly. No honorees remained.")
	}

	w.Ceremony = nil
	return nil
}

// AcceptMission commits a squad to the offered patrol call.
func (s *Set) AcceptMission(w *world.World, missionID string, squad []world.Ref) error {
	m := w.Mission
	if m == nil || m.Status != world.MissionOffered {
		return world.ErrNoPendingMission
	}
	if m.ID != missionID {
		return fmt.Errorf("mission %q: %w", missionID, world.ErrNoPendingMission)
	}

	spec := s.missionCatalog()[m.ID]
	squadMin, squadMax, duration := 1, w.RosterCapacity, 1
	if spec != nil {
		squadMin, squadMax, duration = spec.SquadMin, spec.SquadMax, spec.DurationDays
	}

	if len(squad) < squadMin || len(squad) > squadMax {
		return fmt.Errorf("squad of %d outside %d-%d: %w", len(squad), squadMin, squadMax, world.ErrSquadQuota)
	}

	seen := map[int]bool{}
	for _, ref := range squad {
		if seen[ref.SlotNo] {
			return fmt.Errorf("slot %d listed twice: %w", ref.SlotNo, world.ErrSquadQuota)
		}
		seen[ref.SlotNo] = true

		t, err := w.Resolve(ref)
		if err != nil {
			return err
		}
		if !t.Deployable() {
			return fmt.Errorf("%s (slot %d) is not deployable: %w", t.Name, t.SlotNo, world.ErrSquadQuota)
		}
	}

	m.Status = world.MissionUnderway
	m.Squad = squad
	m.ResolveDay = w.CurrentDay + duration
	w.Record(world.EventMission, fmt.Sprintf("A squad of %d departs on %s.", len(squad), m.Name))
	return nil
}

// DeclineMission turns down the offered patrol call.
func (s *Set) DeclineMission(w *world.World, missionID string) error {
	m := w.Mission
	if m == nil || m.Status != world.MissionOffered {
		return world.ErrNoPendingMission
	}
	if m.ID != missionID {
		return fmt.Errorf("mission %q: %w", missionID, world.ErrNoPendingMission)
	}

	w.Mission = nil
	w.Morale = clamp(w.Morale-1, 0, 100)
	w.Record(world.EventMission, fmt.Sprintf("Patrol call %s declined.", m.Name))
	return nil
}
