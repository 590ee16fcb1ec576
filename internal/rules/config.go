package rules

import "github.com/bastionworks/garrison/internal/world"

// Config tunes the simulation cadences and starting conditions. Zero values
// fall back to the defaults below so a partially specified config is usable.
type Config struct {
	CouncilCadenceDays  int
	CeremonyCadenceDays int
	MissionCadenceDays  int

	ReplacementDelayDays int
	AcademyDays          int
	RecoveryDays         int

	RosterCapacity int
	StartingRoster int

	StartingFunds     int
	StartingMorale    int
	StartingAuthority int
}

const (
	DefaultCouncilCadenceDays  = 7
	DefaultCeremonyCadenceDays = 30
	DefaultMissionCadenceDays  = 3

	DefaultReplacementDelayDays = 3
	DefaultAcademyDays          = 5
	DefaultRecoveryDays         = 4

	DefaultStartingRoster    = 6
	DefaultStartingFunds     = 200
	DefaultStartingMorale    = 60
	DefaultStartingAuthority = 10
)

func (c *Config) normalize() {
	if c.CouncilCadenceDays <= 0 {
		c.CouncilCadenceDays = DefaultCouncilCadenceDays
	}
	if c.CeremonyCadenceDays <= 0 {
		c.CeremonyCadenceDays = DefaultCeremonyCadenceDays
	}
	if c.MissionCadenceDays <= 0 {
		c.MissionCadenceDays = DefaultMissionCadenceDays
	}
	if c.ReplacementDelayDays <= 0 {
		c.ReplacementDelayDays = DefaultReplacementDelayDays
	}
	if c.AcademyDays <= 0 {
		c.AcademyDays = DefaultAcademyDays
	}
	if c.RecoveryDays <= 0 {
		c.RecoveryDays = DefaultRecoveryDays
	}
	if c.RosterCapacity <= 0 {
		c.RosterCapacity = world.DefaultRosterCapacity
	}
	if c.StartingRoster <= 0 {
		c.StartingRoster = DefaultStartingRoster
	}
	if c.StartingRoster > c.RosterCapacity {
		c.StartingRoster = c.RosterCapacity
	}
	if c.StartingFunds <= 0 {
		c.StartingFunds = DefaultStartingFunds
	}
	if c.StartingMorale <= 0 {
		c.StartingMorale = DefaultStartingMorale
	}
	if c.StartingAuthority <= 0 {
		c.StartingAuthority = DefaultStartingAuthority
	}
}
