package rules

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/bastionworks/garrison/internal/assets"
	"github.com/bastionworks/garrison/internal/world"
)

// Set is the deterministic rule set driving the garrison simulation. All
// outcomes derive from stable hashes of world identity, so replaying the
// same days against the same content yields the same history.
type Set struct {
	cfg Config

	names    assets.Storer[*NamePool]
	missions assets.Storer[*MissionSpec]
	councils assets.Storer[*CouncilSpec]
}

type SetOpt func(*Set)

func WithNamePool(st assets.Storer[*NamePool]) SetOpt {
	return func(s *Set) {
		s.names = st
	}
}

func WithMissionCatalog(st assets.Storer[*MissionSpec]) SetOpt {
	return func(s *Set) {
		s.missions = st
	}
}

func WithCouncilCatalog(st assets.Storer[*CouncilSpec]) SetOpt {
	return func(s *Set) {
		s.councils = st
	}
}

func NewSet(cfg Config, opts ...SetOpt) *Set {
	cfg.normalize()
	s := &Set{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewWorld builds a fresh garrison for the player: a partially filled
// roster of first-generation troopers and the initial event cadences.
func (s *Set) NewWorld(playerID string, nowMS int64) (*world.World, error) {
	if playerID == "" {
		return nil, fmt.Errorf("player id must be set")
	}

	w := &world.World{
		PlayerID:         playerID,
		StateVersion:     1,
		CreatedAtMS:      nowMS,
		LastTickMS:       nowMS,
		CurrentDay:       1,
		TimeScale:        world.DefaultTimeScale,
		Funds:            s.cfg.StartingFunds,
		Morale:           s.cfg.StartingMorale,
		Rank:             rankLadder[0],
		CommandAuthority: s.cfg.StartingAuthority,
		RosterCapacity:   s.cfg.RosterCapacity,
		NextCouncilDay:   1 + s.cfg.CouncilCadenceDays,
		NextCeremonyDay:  1 + s.cfg.CeremonyCadenceDays,
		NextMissionDay:   1 + s.cfg.MissionCadenceDays,
	}

	for slot := 0; slot < s.cfg.StartingRoster; slot++ {
		w.InstallTrooper(&world.Trooper{
			SlotNo:       slot,
			Generation:   1,
			Name:         s.trooperName(playerID, slot, 1),
			Status:       world.StatusActive,
			Fitness:      55 + int(roll(playerID, "fitness", strconv.Itoa(slot))%21),
			InstalledDay: 1,
		})
	}

	if err := w.Extensions.Set(campaignKey, campaignState{}); err != nil {
		return nil, err
	}

	w.Record(world.EventSystem, "Garrison established. The watch begins.")
	return w, nil
}

// DayCost estimates the work one simulated day costs for this world, used
// by the tick budget. Roster size dominates; due replacements add churn.
func (s *Set) DayCost(w *world.World) int {
	cost := len(w.Troopers)
	cost += len(w.DueReplacements(w.CurrentDay + 1))
	if cost < 1 {
		cost = 1
	}
	return cost
}

func (s *Set) trooperName(playerID string, slot, generation int) string {
	pool := builtinNames.Names
	if s.names != nil {
		var merged []string
		for _, id := range sortedKeys(s.names.GetAll()) {
			merged = append(merged, s.names.Get(id).Names...)
		}
		if len(merged) > 0 {
			pool = merged
		}
	}
	idx := roll(playerID, "name", strconv.Itoa(slot), strconv.Itoa(generation)) % uint64(len(pool))
	return pool[idx]
}

func (s *Set) missionCatalog() map[string]*MissionSpec {
	if s.missions != nil {
		if all := s.missions.GetAll(); len(all) > 0 {
			return all
		}
	}
	return builtinMissions
}

func (s *Set) councilCatalog() map[string]*CouncilSpec {
	if s.councils != nil {
		if all := s.councils.GetAll(); len(all) > 0 {
			return all
		}
	}
	return builtinCouncils
}

// roll hashes the parts into a stable value. The zero byte between parts
// keeps ("ab","c") distinct from ("a","bc").
func roll(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pick[T any](m map[string]T, seed ...string) (string, T) {
	keys := sortedKeys(m)
	idx := roll(seed...) % uint64(len(keys))
	return keys[idx], m[keys[idx]]
}
