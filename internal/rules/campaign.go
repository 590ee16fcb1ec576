package rules

import (
	"fmt"

	"github.com/bastionworks/garrison/internal/world"
)

const campaignKey = "campaign"

// campaignState is the rules' private running tally, carried in the world's
// extension bag so it persists and versions with everything else.
type campaignState struct {
	Resolved  int `json:"resolved"`
	Victories int `json:"victories"`
}

var rankLadder = []string{"Warden", "Commander", "Marshal", "High Marshal"}

// victories needed to hold each rank, aligned with rankLadder.
var rankThresholds = []int{0, 3, 8, 15}

func loadCampaign(w *world.World) (campaignState, error) {
	var c campaignState
	if _, err := w.Extensions.Get(campaignKey, &c); err != nil {
		return c, fmt.Errorf("loading campaign state: %w", err)
	}
	return c, nil
}

func saveCampaign(w *world.World, c campaignState) error {
	return w.Extensions.Set(campaignKey, c)
}

// rankFor returns the highest rank the victory count supports.
func rankFor(victories int) string {
	rank := rankLadder[0]
	for i, threshold := range rankThresholds {
		if victories >= threshold {
			rank = rankLadder[i]
		}
	}
	return rank
}
