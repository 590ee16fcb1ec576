package engine

import (
	"context"
	"errors"
	"time"

	"github.com/bastionworks/garrison/internal/store"
	"github.com/bastionworks/garrison/internal/world"
)

// Ruleset is the simulation the engine drives. The engine owns time,
// locking, pause discipline, and persistence; the ruleset owns what a day
// means and how the commander's answers change the world.
type Ruleset interface {
	NewWorld(playerID string, nowMS int64) (*world.World, error)
	DayCost(w *world.World) int
	RunDay(w *world.World) error
	ApplyDecision(w *world.World, decisionID, optionID string) error
	ApplyCeremony(w *world.World) error
	AcceptMission(w *world.World, missionID string, squad []world.Ref) error
	DeclineMission(w *world.World, missionID string) error
}

// Notifier is told about committed versions so connected clients can pull
// the delta. Notification is best-effort; the durable log is the truth.
type Notifier interface {
	NotifyDelta(ctx context.Context, playerID string, version int64)
}

const (
	DefaultPauseTTL     = 5 * time.Minute
	DefaultHeartbeatTTL = 90 * time.Second

	// DefaultOpDayBudget is the fallback grant for a background tick when
	// the scheduler does not supply one. Player-facing operations are not
	// bounded; they always catch the world up to the present.
	DefaultOpDayBudget = 64
)

// ErrInvalidInput marks client mistakes that are neither conflicts nor
// missing worlds, such as an out-of-range time scale.
var ErrInvalidInput = errors.New("invalid input")

type Engine struct {
	st    *store.Store
	rules Ruleset

	notifier Notifier
	nowMS    func() int64

	dayLengthMS    int64
	pauseTTLMS     int64
	heartbeatTTLMS int64
	opBudget       int
}

type Opt func(*Engine)

func WithNotifier(n Notifier) Opt {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithClock overrides the wall clock, in milliseconds. Tests drive time
// through this.
func WithClock(now func() int64) Opt {
	return func(e *Engine) {
		e.nowMS = now
	}
}

func WithDayLength(d time.Duration) Opt {
	return func(e *Engine) {
		e.dayLengthMS = d.Milliseconds()
	}
}

func WithPauseTTL(d time.Duration) Opt {
	return func(e *Engine) {
		e.pauseTTLMS = d.Milliseconds()
	}
}

func WithHeartbeatTTL(d time.Duration) Opt {
	return func(e *Engine) {
		e.heartbeatTTLMS = d.Milliseconds()
	}
}

func WithOpDayBudget(n int) Opt {
	return func(e *Engine) {
		e.opBudget = n
	}
}

func New(st *store.Store, rules Ruleset, opts ...Opt) *Engine {
	e := &Engine{
		st:             st,
		rules:          rules,
		nowMS:          func() int64 { return time.Now().UnixMilli() },
		dayLengthMS:    world.DefaultDayLengthMS,
		pauseTTLMS:     DefaultPauseTTL.Milliseconds(),
		heartbeatTTLMS: DefaultHeartbeatTTL.Milliseconds(),
		opBudget:       DefaultOpDayBudget,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) now() int64 {
	return e.nowMS()
}

// Conflict carries the freshest committed snapshot alongside the rejection,
// so a client holding stale state can reconcile without a second round trip.
type Conflict struct {
	Err   error
	World *world.World
}

func (c *Conflict) Error() string {
	return c.Err.Error()
}

func (c *Conflict) Unwrap() error {
	return c.Err
}

var conflictClass = []error{
	world.ErrAlreadyPaused,
	world.ErrNotPaused,
	world.ErrPauseToken,
	world.ErrStaleRef,
	world.ErrNoPendingDecision,
	world.ErrNoPendingCeremony,
	world.ErrNoPendingMission,
	world.ErrSquadQuota,
}

// IsConflict reports whether err belongs to the class a client resolves by
// reconciling with the current snapshot, as opposed to fixing its request.
func IsConflict(err error) bool {
	for _, c := range conflictClass {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}

// conflict upgrades conflict-class errors with the committed snapshot. The
// failed mutation rolled back, so the snapshot read here is authoritative.
func (e *Engine) conflict(ctx context.Context, playerID string, err error) error {
	if !IsConflict(err) {
		return err
	}
	w, gerr := e.st.GetWorld(ctx, playerID)
	if gerr != nil {
		return err
	}
	return &Conflict{Err: err, World: w}
}

func (e *Engine) notify(ctx context.Context, playerID string, from, to int64) {
	if e.notifier == nil || to <= from {
		return
	}
	e.notifier.NotifyDelta(ctx, playerID, to)
}

// mutate is the single path every engine operation takes through the store:
// per-player lock, change detection, version bump, delta append, then a
// best-effort notification when a version was actually committed.
func (e *Engine) mutate(ctx context.Context, playerID string, fn store.MutateFunc) (*world.World, error) {
	var from int64
	w, err := e.st.WithWorldLock(ctx, playerID, e.now(), func(w *world.World) error {
		from = w.StateVersion
		return fn(w)
	})
	if err != nil {
		return nil, e.conflict(ctx, playerID, err)
	}
	e.notify(ctx, playerID, from, w.StateVersion)
	return w, nil
}
