package rules

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// NamePool is a list of trooper names drawn from when recruits are named.
type NamePool struct {
	Names []string `json:"names"`
}

func (p *NamePool) Validate() error {
	el := errors.NewErrorList()

	if len(p.Names) == 0 {
		el.Add(fmt.Errorf("names must not be empty"))
	}
	for i, n := range p.Names {
		if n == "" {
			el.Add(fmt.Errorf("name %d must not be empty", i))
		}
	}

	return el.Err()
}

// MissionSpec is one patrol call template from the mission catalog.
type MissionSpec struct {
	Name         string `json:"name"`
	Hazard       int    `json:"hazard"`
	DurationDays int    `json:"duration_days"`
	SquadMin     int    `json:"squad_min"`
	SquadMax     int    `json:"squad_max"`
	RewardFunds  int    `json:"reward_funds"`
	RewardMorale int    `json:"reward_morale"`
}

func (m *MissionSpec) Validate() error {
	el := errors.NewErrorList()

	if m.Name == "" {
		el.Add(fmt.Errorf("name must be set"))
	}
	if m.Hazard < 1 || m.Hazard > 5 {
		el.Add(fmt.Errorf("hazard must be between 1 and 5"))
	}
	if m.DurationDays < 1 {
		el.Add(fmt.Errorf("duration must be at least 1 day"))
	}
	if m.SquadMin < 1 {
		el.Add(fmt.Errorf("squad minimum must be at least 1"))
	}
	if m.SquadMax < m.SquadMin {
		el.Add(fmt.Errorf("squad maximum must not be below the minimum"))
	}

	return el.Err()
}

// Effect is the stat adjustment a council ruling applies.
type Effect struct {
	Funds     int `json:"funds,omitempty"`
	Morale    int `json:"morale,omitempty"`
	Authority int `json:"authority,omitempty"`
}

type CouncilOption struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Effect Effect `json:"effect"`
}

// CouncilSpec is one ruling the garrison council can put to the commander.
type CouncilSpec struct {
	Topic   string          `json:"topic"`
	Prompt  string          `json:"prompt"`
	Options []CouncilOption `json:"options"`
}

func (c *CouncilSpec) Validate() error {
	el := errors.NewErrorList()

	if c.Topic == "" {
		el.Add(fmt.Errorf("topic must be set"))
	}
	if c.Prompt == "" {
		el.Add(fmt.Errorf("prompt must be set"))
	}
	if len(c.Options) < 2 {
		el.Add(fmt.Errorf("at least two options are required"))
	}

	seen := map[string]bool{}
	for i, o := range c.Options {
		if o.ID == "" {
			el.Add(fmt.Errorf("option %d id must be set", i))
			continue
		}
		if seen[o.ID] {
			el.Add(fmt.Errorf("option id %q is duplicated", o.ID))
		}
		seen[o.ID] = true
		if o.Label == "" {
			el.Add(fmt.Errorf("option %q label must be set", o.ID))
		}
	}

	return el.Err()
}

// Built-in content used when no asset catalog is mounted. Keeps a bare
// deployment (and the test suite) functional without content files.
var builtinNames = &NamePool{Names: []string{
	"Brant", "Ilsa", "Okafor", "Reyes", "Vance", "Teller",
	"Mireille", "Dax", "Holloway", "Senna", "Pike", "Aster",
	"Korsak", "Lune", "Harrow", "Quill",
}}

var builtinMissions = map[string]*MissionSpec{
	"perimeter-sweep": {
		Name:         "Perimeter Sweep",
		Hazard:       1,
		DurationDays: 1,
		SquadMin:     2,
		SquadMax:     4,
		RewardFunds:  30,
		RewardMorale: 2,
	},
	"convoy-escort": {
		Name:         "Convoy Escort",
		Hazard:       2,
		DurationDays: 2,
		SquadMin:     3,
		SquadMax:     5,
		RewardFunds:  60,
		RewardMorale: 3,
	},
	"breach-response": {
		Name:         "Breach Response",
		Hazard:       4,
		DurationDays: 1,
		SquadMin:     3,
		SquadMax:     6,
		RewardFunds:  120,
		RewardMorale: 5,
	},
}

var builtinCouncils = map[string]*CouncilSpec{
	"rations-review": {
		Topic:  "Rations Review",
		Prompt: "The quartermaster proposes cutting rations to stretch the budget.",
		Options: []CouncilOption{
			{ID: "cut", Label: "Cut rations", Effect: Effect{Funds: 40, Morale: -5}},
			{ID: "hold", Label: "Hold rations steady", Effect: Effect{Morale: 1}},
			{ID: "improve", Label: "Improve rations", Effect: Effect{Funds: -30, Morale: 4}},
		},
	},
	"training-budget": {
		Topic:  "Training Budget",
		Prompt: "The drill sergeant requests funds for a live-fire exercise.",
		Options: []CouncilOption{
			{ID: "approve", Label: "Approve the exercise", Effect: Effect{Funds: -50, Morale: 3, Authority: 1}},
			{ID: "deny", Label: "Deny the request", Effect: Effect{Morale: -2}},
		},
	},
	"leave-rotation": {
		Topic:  "Leave Rotation",
		Prompt: "The council debates granting extended leave before the next patrol cycle.",
		Options: []CouncilOption{
			{ID: "grant", Label: "Grant leave", Effect: Effect{Morale: 5, Authority: -1}},
			{ID: "defer", Label: "Defer until the cycle ends", Effect: Effect{Authority: 1}},
		},
	},
}
