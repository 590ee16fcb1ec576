package rules

import (
	"fmt"
	"strconv"

	"github.com/bastionworks/garrison/internal/world"
)

// RunDay applies one simulated day to the world. The caller has already
// advanced CurrentDay; everything here keys off the new value. Step order
// is fixed: roster upkeep first, then mission resolution, then whatever
// new interactions the day raises.
func (s *Set) RunDay(w *world.World) error {
	s.promoteReplacements(w)
	s.graduateRecruits(w)
	s.recoverInjured(w)
	s.ageRoster(w)

	if err := s.resolveMission(w); err != nil {
		return err
	}

	s.raiseCouncil(w)
	s.raiseCeremony(w)
	s.offerMission(w)
	return nil
}

func (s *Set) promoteReplacements(w *world.World) {
	for _, order := range w.DueReplacements(w.CurrentDay) {
		gen := 1
		if old := w.TrooperAt(order.SlotNo); old != nil {
			gen = old.Generation + 1
		}
		name := s.trooperName(w.PlayerID, order.SlotNo, gen)

		w.InstallTrooper(&world.Trooper{
			SlotNo:        order.SlotNo,
			Generation:    gen,
			Name:          name,
			Status:        world.StatusRecruiting,
			Fitness:       50 + int(roll(w.PlayerID, "recruit", strconv.Itoa(order.SlotNo), strconv.Itoa(gen))%16),
			InstalledDay:  w.CurrentDay,
			GraduationDay: w.CurrentDay + s.cfg.AcademyDays,
		})
		w.RemoveReplacement(order.SlotNo)
		w.Record(world.EventRoster, fmt.Sprintf("%s reports to the academy for slot %d.", name, order.SlotNo))
	}
}

func (s *Set) graduateRecruits(w *world.World) {
	for _, t := range w.Troopers {
		if t.Status == world.StatusRecruiting && t.GraduationDay > 0 && t.GraduationDay <= w.CurrentDay {
			t.Status = world.StatusActive
			t.GraduationDay = 0
			w.Record(world.EventRoster, fmt.Sprintf("%s graduates the academy and joins the watch.", t.Name))
		}
	}
}

func (s *Set) recoverInjured(w *world.World) {
	for _, t := range w.Troopers {
		if t.Status == world.StatusInjured && t.RecoveryDay > 0 && t.RecoveryDay <= w.CurrentDay {
			t.Status = world.StatusActive
			t.RecoveryDay = 0
			w.Record(world.EventRoster, fmt.Sprintf("%s is cleared for duty.", t.Name))
		}
	}
}

func (s *Set) ageRoster(w *world.World) {
	for _, t := range w.Troopers {
		if t.Status != world.StatusKIA {
			t.AgeDays++
		}
	}
}

func (s *Set) resolveMission(w *world.World) error {
	m := w.Mission
	if m == nil || m.Status != world.MissionUnderway || m.ResolveDay > w.CurrentDay {
		return nil
	}

	spec := s.missionCatalog()[m.ID]

	var casualties, returned int
	for _, ref := range m.Squad {
		t, err := w.Resolve(ref)
		if err != nil {
			// Squad members cannot be replaced mid-mission; a stale ref
			// here means content was reset under us. Skip rather than fail
			// the whole day.
			continue
		}

		r := int(roll(w.PlayerID, "sortie", m.ID, strconv.Itoa(m.OfferedDay),
			strconv.Itoa(ref.SlotNo), strconv.Itoa(ref.Generation)) % 100)
		kiaBar := m.Hazard * 3
		injuryBar := kiaBar + m.Hazard*4

		switch {
		case r < kiaBar:
			t.Status = world.StatusKIA
			casualties++
			w.EnqueueReplacement(t.SlotNo, w.CurrentDay+s.cfg.ReplacementDelayDays)
			w.Record(world.EventRoster, fmt.Sprintf("%s fell during %s. Slot %d awaits a replacement.", t.Name, m.Name, t.SlotNo))
		case r < injuryBar:
			t.Status = world.StatusInjured
			t.RecoveryDay = w.CurrentDay + s.cfg.RecoveryDays
			t.Missions++
			w.Record(world.EventRoster, fmt.Sprintf("%s returns from %s wounded.", t.Name, m.Name))
		default:
			t.Missions++
			returned++
			if t.Fitness < 95 {
				t.Fitness += 2
			}
			if r >= 97 {
				t.Commendations++
				w.Record(world.EventRoster, fmt.Sprintf("%s is cited for valor on %s.", t.Name, m.Name))
			}
		}
	}

	success := returned >= (len(m.Squad)+1)/2
	if success {
		if spec != nil {
			w.Funds += spec.RewardFunds
			w.Morale = clamp(w.Morale+spec.RewardMorale, 0, 100)
		}
		w.Record(world.EventMission, fmt.Sprintf("%s concluded successfully.", m.Name))
	} else {
		w.Morale = clamp(w.Morale-m.Hazard*2, 0, 100)
		w.Record(world.EventMission, fmt.Sprintf("%s ended in failure. %d lost.", m.Name, casualties))
	}

	campaign, err := loadCampaign(w)
	if err != nil {
		return err
	}
	campaign.Resolved++
	if success {
		campaign.Victories++
	}
	if err := saveCampaign(w, campaign); err != nil {
		return err
	}

	if rank := rankFor(campaign.Victories); rank != w.Rank {
		w.Rank = rank
		w.CommandAuthority++
		w.Record(world.EventSystem, fmt.Sprintf("Command recognizes the garrison. Promoted to %s.", rank))
	}

	w.Mission = nil
	return nil
}

func (s *Set) raiseCouncil(w *world.World) {
	if w.CurrentDay < w.NextCouncilDay || w.Decision != nil {
		return
	}

	id, spec := pick(s.councilCatalog(), w.PlayerID, "council", strconv.Itoa(w.CurrentDay))
	opts := make([]world.DecisionOption, len(spec.Options))
	for i, o := range spec.Options {
		opts[i] = world.DecisionOption{ID: o.ID, Label: o.Label}
	}

	w.Decision = &world.Decision{
		ID:        id,
		Topic:     spec.Topic,
		Prompt:    spec.Prompt,
		Options:   opts,
		RaisedDay: w.CurrentDay,
	}
	w.NextCouncilDay = w.CurrentDay + s.cfg.CouncilCadenceDays
	w.Record(world.EventCouncil, fmt.Sprintf("The council convenes: %s.", spec.Topic))
}

func (s *Set) raiseCeremony(w *world.World) {
	if w.CurrentDay < w.NextCeremonyDay || w.Ceremony != nil {
		return
	}
	w.NextCeremonyDay = w.CurrentDay + s.cfg.CeremonyCadenceDays

	// Three completed sorties beyond the last commendation earns a place
	// on the honors list.
	var honorees []world.Ref
	for _, t := range w.Troopers {
		if t.Status != world.StatusKIA && t.Missions >= (t.Commendations+1)*3 {
			honorees = append(honorees, t.Ref())
		}
	}
	if len(honorees) == 0 {
		return
	}

	w.Ceremony = &world.Ceremony{
		ID:        fmt.Sprintf("ceremony-%d", w.CurrentDay),
		Honorees:  honorees,
		RaisedDay: w.CurrentDay,
	}
	w.Record(world.EventCeremony, "A commendation ceremony is called.")
}

func (s *Set) offerMission(w *world.World) {
	if w.Mission != nil || w.CurrentDay < w.NextMissionDay {
		return
	}
	w.NextMissionDay = w.CurrentDay + s.cfg.MissionCadenceDays

	id, spec := pick(s.missionCatalog(), w.PlayerID, "mission", strconv.Itoa(w.CurrentDay))
	if w.CountByStatus(world.StatusActive) < spec.SquadMin {
		w.Record(world.EventMission, fmt.Sprintf("Patrol call %s deferred. Too few active troopers.", spec.Name))
		return
	}

	w.Mission = &world.Mission{
		ID:         id,
		Name:       spec.Name,
		Status:     world.MissionOffered,
		Hazard:     spec.Hazard,
		OfferedDay: w.CurrentDay,
	}
	w.Record(world.EventMission, fmt.Sprintf("Patrol call: %s (hazard %d).", spec.Name, spec.Hazard))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
