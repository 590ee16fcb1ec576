package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/bastionworks/garrison/internal/store"
	"github.com/bastionworks/garrison/internal/world"
)

type fakeEngine struct {
	mu      sync.Mutex
	rows    []store.Liveness
	listErr error
	tickErr map[string]error
	ticks   map[string]int
	grants  []int
	listed  chan struct{}
}

func newFakeEngine(rows ...store.Liveness) *fakeEngine {
	return &fakeEngine{
		rows:    rows,
		tickErr: map[string]error{},
		ticks:   map[string]int{},
	}
}

func (f *fakeEngine) ListLiveness(context.Context) ([]store.Liveness, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listed != nil {
		select {
		case <-f.listed:
		default:
			close(f.listed)
		}
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]store.Liveness{}, f.rows...), nil
}

func (f *fakeEngine) TickWorld(_ context.Context, playerID string, budget int) (*world.World, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, budget)
	if err := f.tickErr[playerID]; err != nil {
		return nil, err
	}
	f.ticks[playerID]++
	return &world.World{PlayerID: playerID}, nil
}

func (f *fakeEngine) tickCount(playerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks[playerID]
}

func TestTick_ActiveEveryPassIdleOnCadence(t *testing.T) {
	now := int64(1_000_000)
	eng := newFakeEngine(
		store.Liveness{PlayerID: "active", SessionActiveUntilMS: 2_000_000},
		store.Liveness{PlayerID: "idle", SessionActiveUntilMS: 0},
	)
	s := New(eng, WithClock(func() int64 { return now }), WithIdleInterval(5*time.Second))

	// First sweep visits everyone.
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "active", eng.tickCount("active"), 1)
	testutil.AssertEqual(t, "idle", eng.tickCount("idle"), 1)

	// 400ms later only the watched world is due.
	now += 400
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "active again", eng.tickCount("active"), 2)
	testutil.AssertEqual(t, "idle skipped", eng.tickCount("idle"), 1)

	// Past the idle cadence the sleeping world gets its visit too.
	now += 5_000
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "active still", eng.tickCount("active"), 3)
	testutil.AssertEqual(t, "idle revisited", eng.tickCount("idle"), 2)
}

func TestTick_FailingWorldIsSkippedNotFatal(t *testing.T) {
	eng := newFakeEngine(
		store.Liveness{PlayerID: "bad", SessionActiveUntilMS: 2_000_000},
		store.Liveness{PlayerID: "good", SessionActiveUntilMS: 2_000_000},
	)
	eng.tickErr["bad"] = errors.New("boom")
	s := New(eng, WithClock(func() int64 { return 1_000_000 }))

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("one bad world must not fail the pass: %v", err)
	}
	testutil.AssertEqual(t, "good ticked", eng.tickCount("good"), 1)
	testutil.AssertEqual(t, "bad not ticked", eng.tickCount("bad"), 0)
	testutil.AssertEqual(t, "failures", s.Stats().Failures, int64(1))

	// The failed world is still due next pass.
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "failures again", s.Stats().Failures, int64(2))
}

func TestTick_ListFailureSurfaces(t *testing.T) {
	eng := newFakeEngine()
	eng.listErr = errors.New("db gone")
	s := New(eng)

	err := s.Tick(context.Background())
	testutil.AssertErrorContains(t, err, "db gone")
}

func TestTick_HandsGrantToEngine(t *testing.T) {
	eng := newFakeEngine(store.Liveness{PlayerID: "w", SessionActiveUntilMS: 2_000_000})
	s := New(eng,
		WithClock(func() int64 { return 1_000_000 }),
		WithBudget(NewBudget(WithBudgetRange(7, 7))),
	)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "grants", eng.grants, []int{7})
}

func TestTick_ForgetsDeletedWorlds(t *testing.T) {
	eng := newFakeEngine(store.Liveness{PlayerID: "gone", SessionActiveUntilMS: 0})
	s := New(eng, WithClock(func() int64 { return 1_000_000 }))

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "touched", len(s.lastTouched), 1)

	eng.mu.Lock()
	eng.rows = nil
	eng.mu.Unlock()

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "forgotten", len(s.lastTouched), 0)
}

func TestStats_CountsPasses(t *testing.T) {
	eng := newFakeEngine(store.Liveness{PlayerID: "w", SessionActiveUntilMS: 2_000_000})
	s := New(eng, WithClock(func() int64 { return 1_000_000 }))

	for i := 0; i < 3; i++ {
		if err := s.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stats := s.Stats()
	testutil.AssertEqual(t, "passes", stats.Passes, int64(3))
	testutil.AssertEqual(t, "ticked", stats.LastPassTicked, int64(1))
	testutil.AssertEqual(t, "failures", stats.Failures, int64(0))
}

func TestStart_RunsUntilCancelled(t *testing.T) {
	eng := newFakeEngine()
	eng.listed = make(chan struct{})
	s := New(eng, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-eng.listed:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never swept")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
