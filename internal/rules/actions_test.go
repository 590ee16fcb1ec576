package rules

import (
	"errors"
	"testing"

	"github.com/pixil98/go-testutil"

	"github.com/bastionworks/garrison/internal/world"
)

func pendingDecision() *world.Decision {
	return &world.Decision{
		ID:     "training-budget",
		Topic:  "Training Budget",
		Prompt: "The drill sergeant requests funds for a live-fire exercise.",
		Options: []world.DecisionOption{
			{ID: "approve", Label: "Approve the exercise"},
			{ID: "deny", Label: "Deny the request"},
		},
		RaisedDay: 8,
	}
}

func TestApplyDecision(t *testing.T) {
	tests := map[string]struct {
		decision   *world.Decision
		decisionID string
		optionID   string
		expErr     error
	}{
		"no pending decision": {
			decision:   nil,
			decisionID: "training-budget",
			optionID:   "approve",
			expErr:     world.ErrNoPendingDecision,
		},
		"wrong decision id": {
			decision:   pendingDecision(),
			decisionID: "rations-review",
			optionID:   "approve",
			expErr:     world.ErrNoPendingDecision,
		},
		"unknown option": {
			decision:   pendingDecision(),
			decisionID: "training-budget",
			optionID:   "postpone",
			expErr:     world.ErrUnknownOption,
		},
		"valid answer": {
			decision:   pendingDecision(),
			decisionID: "training-budget",
			optionID:   "approve",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := NewSet(Config{})
			w := quietWorld(9)
			w.Decision = tt.decision

			err := s.ApplyDecision(w, tt.decisionID, tt.optionID)

			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("expected %v, got %v", tt.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.Decision != nil {
				t.Error("decision should be cleared")
			}
		})
	}
}

func TestApplyDecision_AppliesCatalogEffects(t *testing.T) {
	s := NewSet(Config{})
	w := quietWorld(9)
	w.Decision = pendingDecision()

	if err := s.ApplyDecision(w, "training-budget", "approve"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Builtin "approve": funds -50, morale +3, authority +1.
	testutil.AssertEqual(t, "funds", w.Funds, 50)
	testutil.AssertEqual(t, "morale", w.Morale, 53)
	testutil.AssertEqual(t, "authority", w.CommandAuthority, 11)
	if len(w.Events) == 0 {
		t.Error("ruling should leave a bulletin")
	}
}

func TestApplyCeremony(t *testing.T) {
	s := NewSet(Config{})
	w := quietWorld(31)
	w.TrooperAt(3).Status = world.StatusKIA
	w.Ceremony = &world.Ceremony{
		ID: "ceremony-30",
		Honorees: []world.Ref{
			{SlotNo: 0, Generation: 1},
			{SlotNo: 1, Generation: 2},
			{SlotNo: 3, Generation: 1},
		},
		RaisedDay: 30,
	}

	if err := s.ApplyCeremony(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Slot 0 honored; slot 1 ref is stale, slot 3 fell since the call.
	testutil.AssertEqual(t, "slot 0 commended", w.TrooperAt(0).Commendations, 1)
	testutil.AssertEqual(t, "slot 1 untouched", w.TrooperAt(1).Commendations, 0)
	testutil.AssertEqual(t, "slot 3 untouched", w.TrooperAt(3).Commendations, 0)
	testutil.AssertEqual(t, "morale", w.Morale, 52)
	if w.Ceremony != nil {
		t.Error("ceremony should be cleared")
	}
}

func TestApplyCeremony_NoPending(t *testing.T) {
	s := NewSet(Config{})
	w := quietWorld(31)

	if err := s.ApplyCeremony(w); !errors.Is(err, world.ErrNoPendingCeremony) {
		t.Fatalf("expected ErrNoPendingCeremony, got %v", err)
	}
}

func offeredMission() *world.Mission {
	// Builtin convoy-escort: squad 3-5, duration 2.
	return &world.Mission{
		ID:         "convoy-escort",
		Name:       "Convoy Escort",
		Status:     world.MissionOffered,
		Hazard:     2,
		OfferedDay: 9,
	}
}

func TestAcceptMission(t *testing.T) {
	squad3 := []world.Ref{
		{SlotNo: 0, Generation: 1},
		{SlotNo: 1, Generation: 1},
		{SlotNo: 2, Generation: 1},
	}

	tests := map[string]struct {
		mutate    func(w *world.World)
		missionID string
		squad     []world.Ref
		expErr    error
	}{
		"no pending mission": {
			mutate:    func(w *world.World) { w.Mission = nil },
			missionID: "convoy-escort",
			squad:     squad3,
			expErr:    world.ErrNoPendingMission,
		},
		"already underway": {
			mutate:    func(w *world.World) { w.Mission.Status = world.MissionUnderway },
			missionID: "convoy-escort",
			squad:     squad3,
			expErr:    world.ErrNoPendingMission,
		},
		"wrong mission id": {
			mutate:    func(w *world.World) {},
			missionID: "breach-response",
			squad:     squad3,
			expErr:    world.ErrNoPendingMission,
		},
		"squad too small": {
			mutate:    func(w *world.World) {},
			missionID: "convoy-escort",
			squad:     squad3[:2],
			expErr:    world.ErrSquadQuota,
		},
		"duplicate slot": {
			mutate:    func(w *world.World) {},
			missionID: "convoy-escort",
			squad: []world.Ref{
				{SlotNo: 0, Generation: 1},
				{SlotNo: 0, Generation: 1},
				{SlotNo: 1, Generation: 1},
			},
			expErr: world.ErrSquadQuota,
		},
		"stale reference": {
			mutate:    func(w *world.World) {},
			missionID: "convoy-escort",
			squad: []world.Ref{
				{SlotNo: 0, Generation: 2},
				{SlotNo: 1, Generation: 1},
				{SlotNo: 2, Generation: 1},
			},
			expErr: world.ErrStaleRef,
		},
		"injured trooper": {
			mutate:    func(w *world.World) { w.TrooperAt(2).Status = world.StatusInjured },
			missionID: "convoy-escort",
			squad:     squad3,
			expErr:    world.ErrSquadQuota,
		},
		"valid squad": {
			mutate:    func(w *world.World) {},
			missionID: "convoy-escort",
			squad:     squad3,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := NewSet(Config{})
			w := quietWorld(9)
			w.Mission = offeredMission()
			tt.mutate(w)

			err := s.AcceptMission(w, tt.missionID, tt.squad)

			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("expected %v, got %v", tt.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "status", w.Mission.Status, world.MissionUnderway)
			testutil.AssertEqual(t, "resolve day", w.Mission.ResolveDay, 9+2)
			testutil.AssertEqual(t, "squad", len(w.Mission.Squad), 3)
		})
	}
}

func TestDeclineMission(t *testing.T) {
	s := NewSet(Config{})
	w := quietWorld(9)
	w.Mission = offeredMission()

	if err := s.DeclineMission(w, "convoy-escort"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.Mission != nil {
		t.Error("mission should be cleared")
	}
	testutil.AssertEqual(t, "morale", w.Morale, 49)
}

func TestDeclineMission_NoPending(t *testing.T) {
	s := NewSet(Config{})
	w := quietWorld(9)

	if err := s.DeclineMission(w, "convoy-escort"); !errors.Is(err, world.ErrNoPendingMission) {
		t.Fatalf("expected ErrNoPendingMission, got %v", err)
	}
}
