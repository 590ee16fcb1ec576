package command

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/bastionworks/garrison/internal/rules"
)

// RulesConfig overrides simulation cadences and starting conditions. Zero
// values defer to the rule set's defaults.
type RulesConfig struct {
	CouncilCadenceDays  int `json:"council_cadence_days"`
	CeremonyCadenceDays int `json:"ceremony_cadence_days"`
	MissionCadenceDays  int `json:"mission_cadence_days"`

	ReplacementDelayDays int `json:"replacement_delay_days"`
	AcademyDays          int `json:"academy_days"`
	RecoveryDays         int `json:"recovery_days"`

	RosterCapacity int `json:"roster_capacity"`
	StartingRoster int `json:"starting_roster"`

	StartingFunds     int `json:"starting_funds"`
	StartingMorale    int `json:"starting_morale"`
	StartingAuthority int `json:"starting_authority"`
}

func (c *RulesConfig) validate() error {
	el := errors.NewErrorList()

	fields := []struct {
		name  string
		value int
	}{
		{"council_cadence_days", c.CouncilCadenceDays},
		{"ceremony_cadence_days", c.CeremonyCadenceDays},
		{"mission_cadence_days", c.MissionCadenceDays},
		{"replacement_delay_days", c.ReplacementDelayDays},
		{"academy_days", c.AcademyDays},
		{"recovery_days", c.RecoveryDays},
		{"roster_capacity", c.RosterCapacity},
		{"starting_roster", c.StartingRoster},
		{"starting_funds", c.StartingFunds},
		{"starting_morale", c.StartingMorale},
		{"starting_authority", c.StartingAuthority},
	}
	for _, f := range fields {
		if f.value < 0 {
			el.Add(fmt.Errorf("rules: %s must not be negative", f.name))
		}
	}

	return el.Err()
}

func (c *RulesConfig) toRules() rules.Config {
	return rules.Config{
		CouncilCadenceDays:   c.CouncilCadenceDays,
		CeremonyCadenceDays:  c.CeremonyCadenceDays,
		MissionCadenceDays:   c.MissionCadenceDays,
		ReplacementDelayDays: c.ReplacementDelayDays,
		AcademyDays:          c.AcademyDays,
		RecoveryDays:         c.RecoveryDays,
		RosterCapacity:       c.RosterCapacity,
		StartingRoster:       c.StartingRoster,
		StartingFunds:        c.StartingFunds,
		StartingMorale:       c.StartingMorale,
		StartingAuthority:    c.StartingAuthority,
	}
}
