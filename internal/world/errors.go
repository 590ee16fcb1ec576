package world

import "errors"

var (
	ErrWorldNotFound = errors.New("world not found")
	ErrWorldExists   = errors.New("world already exists")

	ErrAlreadyPaused = errors.New("world already paused")
	ErrNotPaused     = errors.New("world not paused")
	ErrPauseToken    = errors.New("pause token mismatch")

	ErrStaleRef          = errors.New("stale trooper reference")
	ErrNoPendingDecision = errors.New("no pending decision")
	ErrNoPendingCeremony = errors.New("no pending ceremony")
	ErrNoPendingMission  = errors.New("no pending mission call")
	ErrUnknownOption     = errors.New("unknown decision option")
	ErrSquadQuota        = errors.New("squad quota exceeded")
)
