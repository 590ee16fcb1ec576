package delta

import (
	"encoding/json"
	"fmt"

	"github.com/bastionworks/garrison/internal/world"
)

type patchKey struct {
	kind Kind
	slot int
}

// Merge consolidates an ordered, contiguous run of deltas into one delta
// spanning the whole range. Post-image patches make this a last-writer-wins
// fold per section; bulletin patches are concatenated instead, since they
// are a feed rather than state.
func Merge(deltas []Delta) (Delta, error) {
	if len(deltas) == 0 {
		return Delta{}, fmt.Errorf("no deltas to merge")
	}

	for i := 1; i < len(deltas); i++ {
		if deltas[i].FromVersion != deltas[i-1].ToVersion {
			return Delta{}, fmt.Errorf("delta chain broken at version %d -> %d",
				deltas[i-1].ToVersion, deltas[i].FromVersion)
		}
	}

	out := Delta{
		FromVersion: deltas[0].FromVersion,
		ToVersion:   deltas[len(deltas)-1].ToVersion,
		TSMS:        deltas[len(deltas)-1].TSMS,
	}

	idx := map[patchKey]int{}
	var events []world.Event

	for _, d := range deltas {
		for _, p := range d.Patches {
			if p.Kind == KindBulletin {
				var ev []world.Event
				if err := json.Unmarshal(p.Body, &ev); err != nil {
					return Delta{}, fmt.Errorf("unmarshalling bulletin patch: %w", err)
				}
				events = append(events, ev...)
				continue
			}

			key := patchKey{kind: p.Kind, slot: p.SlotNo}
			if i, ok := idx[key]; ok {
				out.Patches[i] = p
				continue
			}
			idx[key] = len(out.Patches)
			out.Patches = append(out.Patches, p)
		}
	}

	if len(events) > 0 {
		b, err := json.Marshal(events)
		if err != nil {
			return Delta{}, fmt.Errorf("marshalling merged bulletins: %w", err)
		}
		out.Patches = append(out.Patches, Patch{Kind: KindBulletin, Body: b})
	}

	return out, nil
}
