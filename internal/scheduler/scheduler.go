package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bastionworks/garrison/internal/store"
	"github.com/bastionworks/garrison/internal/world"
)

const (
	DefaultInterval     = 400 * time.Millisecond
	DefaultIdleInterval = 5 * time.Second
)

// Engine is the slice of the game engine the background loop drives.
type Engine interface {
	ListLiveness(ctx context.Context) ([]store.Liveness, error)
	TickWorld(ctx context.Context, playerID string, budget int) (*world.World, error)
}

// Scheduler sweeps every world on a fixed cadence so simulated time keeps
// moving and lazy pause expiry happens even when nobody is looking.
// Worlds with a live session heartbeat are ticked every pass; idle worlds
// are visited on the slower idle cadence, but never skipped entirely.
type Scheduler struct {
	engine Engine
	budget *Budget

	interval  time.Duration
	idleEvery time.Duration
	nowMS     func() int64

	// lastTouched is only ever read and written by the tick loop.
	lastTouched map[string]int64

	passes     atomic.Int64
	failures   atomic.Int64
	lastPassMS atomic.Int64
	lastTicked atomic.Int64
}

type Opt func(*Scheduler)

func WithInterval(d time.Duration) Opt {
	return func(s *Scheduler) {
		s.interval = d
	}
}

func WithIdleInterval(d time.Duration) Opt {
	return func(s *Scheduler) {
		s.idleEvery = d
	}
}

func WithBudget(b *Budget) Opt {
	return func(s *Scheduler) {
		s.budget = b
	}
}

func WithClock(now func() int64) Opt {
	return func(s *Scheduler) {
		s.nowMS = now
	}
}

func New(engine Engine, opts ...Opt) *Scheduler {
	s := &Scheduler{
		engine:      engine,
		budget:      NewBudget(),
		interval:    DefaultInterval,
		idleEvery:   DefaultIdleInterval,
		nowMS:       func() int64 { return time.Now().UnixMilli() },
		lastTouched: map[string]int64{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the sweep until the context is cancelled. A failed pass is
// logged and the loop keeps going; one bad pass must not take the whole
// process down with it.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.ErrorContext(ctx, "scheduler pass", "error", err)
			}
		}
	}
}

// Tick runs one sweep: pick the worlds due for a visit and catch each up
// under its own lock with the current budget grant. A failing world is
// logged and skipped; it never blocks its neighbors.
func (s *Scheduler) Tick(ctx context.Context) error {
	start := time.Now()
	now := s.nowMS()

	rows, err := s.engine.ListLiveness(ctx)
	if err != nil {
		return fmt.Errorf("listing worlds: %w", err)
	}

	grant := s.budget.Grant()
	ticked := 0
	for _, row := range rows {
		if !s.due(row, now) {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.engine.TickWorld(ctx, row.PlayerID, grant); err != nil {
			s.failures.Add(1)
			slog.ErrorContext(ctx, "ticking world", "player", row.PlayerID, "error", err)
			continue
		}
		s.lastTouched[row.PlayerID] = now
		ticked++
	}
	s.forget(rows)

	elapsed := time.Since(start)
	s.budget.Observe(elapsed)
	s.passes.Add(1)
	s.lastPassMS.Store(elapsed.Milliseconds())
	s.lastTicked.Store(int64(ticked))
	return nil
}

func (s *Scheduler) due(row store.Liveness, nowMS int64) bool {
	last, ok := s.lastTouched[row.PlayerID]
	if !ok {
		return true
	}
	if row.SessionActiveUntilMS > nowMS {
		return true
	}
	return nowMS-last >= s.idleEvery.Milliseconds()
}

// forget drops touch records for worlds that no longer exist.
func (s *Scheduler) forget(rows []store.Liveness) {
	if len(s.lastTouched) == len(rows) {
		return
	}
	alive := make(map[string]bool, len(rows))
	for _, row := range rows {
		alive[row.PlayerID] = true
	}
	for id := range s.lastTouched {
		if !alive[id] {
			delete(s.lastTouched, id)
		}
	}
}

// Stats is a read-only gauge of the sweep, safe to call from any
// goroutine while the loop runs.
type Stats struct {
	Budget         int   `json:"budget"`
	Passes         int64 `json:"passes"`
	Failures       int64 `json:"failures"`
	LastPassMS     int64 `json:"last_pass_ms"`
	LastPassTicked int64 `json:"last_pass_ticked"`
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Budget:         s.budget.Grant(),
		Passes:         s.passes.Load(),
		Failures:       s.failures.Load(),
		LastPassMS:     s.lastPassMS.Load(),
		LastPassTicked: s.lastTicked.Load(),
	}
}
