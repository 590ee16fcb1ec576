package delta

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bastionworks/garrison/internal/world"
)

type Kind string

const (
	KindWorldCore        Kind = "world_core"
	KindPause            Kind = "pause"
	KindTrooper          Kind = "trooper"
	KindReplacementQueue Kind = "replacement_queue"
	KindMission          Kind = "mission"
	KindDecision         Kind = "decision"
	KindCeremony         Kind = "ceremony"
	KindExtension        Kind = "extension"
	KindBulletin         Kind = "bulletin"
)

// Patch is one section's post-image. SlotNo disambiguates trooper patches;
// every other kind appears at most once per delta.
type Patch struct {
	Kind   Kind            `json:"kind"`
	SlotNo int             `json:"slot_no,omitempty"`
	Body   json.RawMessage `json:"body"`
}

// Delta describes the change between two consecutive (or merged) state
// versions, as a bounded set of section post-images.
type Delta struct {
	FromVersion int64   `json:"from_version"`
	ToVersion   int64   `json:"to_version"`
	TSMS        int64   `json:"ts_ms"`
	Patches     []Patch `json:"patches"`
}

// core carries the version-significant scalars of the world. Together with
// the section kinds above it must cover every field of world.World that the
// version/delta mechanism is responsible for; coverage_test.go enforces
// that no field is silently missed.
type core struct {
	LastTickMS       int64  `json:"last_tick_ms"`
	CurrentDay       int    `json:"current_day"`
	TimeScale        int    `json:"time_scale"`
	Funds            int    `json:"funds"`
	Morale           int    `json:"morale"`
	Rank             string `json:"rank"`
	CommandAuthority int    `json:"command_authority"`
	RosterCapacity   int    `json:"roster_capacity"`
	NextCouncilDay   int    `json:"next_council_day"`
	NextCeremonyDay  int    `json:"next_ceremony_day"`
	NextMissionDay   int    `json:"next_mission_day"`
}

func coreOf(w *world.World) core {
	return core{
		LastTickMS:       w.LastTickMS,
		CurrentDay:       w.CurrentDay,
		TimeScale:        w.TimeScale,
		Funds:            w.Funds,
		Morale:           w.Morale,
		Rank:             w.Rank,
		CommandAuthority: w.CommandAuthority,
		RosterCapacity:   w.RosterCapacity,
		NextCouncilDay:   w.NextCouncilDay,
		NextCeremonyDay:  w.NextCeremonyDay,
		NextMissionDay:   w.NextMissionDay,
	}
}

// Diff computes the patches that turn before into after. Both worlds must be
// snapshots of the same player; before is the state loaded at the start of
// the mutation, so its event outbox is always empty.
func Diff(before, after *world.World) ([]Patch, error) {
	var patches []Patch

	add := func(kind Kind, slot int, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling %s patch: %w", kind, err)
		}
		patches = append(patches, Patch{Kind: kind, SlotNo: slot, Body: b})
		return nil
	}

	changed, err := sectionChanged(coreOf(before), coreOf(after))
	if err != nil {
		return nil, err
	}
	if changed {
		if err := add(KindWorldCore, 0, coreOf(after)); err != nil {
			return nil, err
		}
	}

	if changed, err = sectionChanged(before.Pause, after.Pause); err != nil {
		return nil, err
	} else if changed {
		if err := add(KindPause, 0, after.Pause); err != nil {
			return nil, err
		}
	}

	beforeSlots := make(map[int]*world.Trooper, len(before.Troopers))
	for _, t := range before.Troopers {
		beforeSlots[t.SlotNo] = t
	}
	for _, t := range after.Troopers {
		if changed, err = sectionChanged(beforeSlots[t.SlotNo], t); err != nil {
			return nil, err
		} else if changed {
			if err := add(KindTrooper, t.SlotNo, t); err != nil {
				return nil, err
			}
		}
	}

	if changed, err = sectionChanged(before.Replacements, after.Replacements); err != nil {
		return nil, err
	} else if changed {
		if err := add(KindReplacementQueue, 0, after.Replacements); err != nil {
			return nil, err
		}
	}

	if changed, err = sectionChanged(before.Mission, after.Mission); err != nil {
		return nil, err
	} else if changed {
		if err := add(KindMission, 0, after.Mission); err != nil {
			return nil, err
		}
	}

	if changed, err = sectionChanged(before.Decision, after.Decision); err != nil {
		return nil, err
	} else if changed {
		if err := add(KindDecision, 0, after.Decision); err != nil {
			return nil, err
		}
	}

	if changed, err = sectionChanged(before.Ceremony, after.Ceremony); err != nil {
		return nil, err
	} else if changed {
		if err := add(KindCeremony, 0, after.Ceremony); err != nil {
			return nil, err
		}
	}

	if changed, err = sectionChanged(before.Extensions, after.Extensions); err != nil {
		return nil, err
	} else if changed {
		if err := add(KindExtension, 0, after.Extensions); err != nil {
			return nil, err
		}
	}

	if len(after.Events) > 0 {
		if err := add(KindBulletin, 0, after.Events); err != nil {
			return nil, err
		}
	}

	return patches, nil
}

func sectionChanged(before, after any) (bool, error) {
	b, err := json.Marshal(before)
	if err != nil {
		return false, fmt.Errorf("marshalling section: %w", err)
	}
	a, err := json.Marshal(after)
	if err != nil {
		return false, fmt.Errorf("marshalling section: %w", err)
	}
	return !bytes.Equal(b, a), nil
}
