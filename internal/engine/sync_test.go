package engine

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/bastionworks/garrison/internal/delta"
	"github.com/bastionworks/garrison/internal/store"
	"github.com/bastionworks/garrison/internal/world"
)

func TestSyncSince_ZeroForcesFull(t *testing.T) {
	f := newFixture(t)
	f.create()
	f.advanceDays(1)
	if _, err := f.eng.Snapshot(context.Background(), "cmdr-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := f.eng.SyncSince(context.Background(), "cmdr-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FullSync || res.World == nil || res.Delta != nil {
		t.Fatalf("expected a full sync, got %+v", res)
	}
	testutil.AssertEqual(t, "current", res.CurrentVersion, int64(2))
}

func TestSyncSince_UpToDate(t *testing.T) {
	f := newFixture(t)
	f.create()

	res, err := f.eng.SyncSince(context.Background(), "cmdr-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FullSync || res.World != nil || res.Delta != nil {
		t.Fatalf("expected an empty ack, got %+v", res)
	}
	testutil.AssertEqual(t, "current", res.CurrentVersion, int64(1))
}

func TestSyncSince_MergedDeltaReconstructsWorld(t *testing.T) {
	f := newFixture(t)
	created := f.create()
	stale, err := created.Clone()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		f.advanceDays(1)
		if _, err := f.eng.Snapshot(context.Background(), "cmdr-1"); err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
	}

	res, err := f.eng.SyncSince(context.Background(), "cmdr-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FullSync || res.Delta == nil {
		t.Fatalf("expected a merged delta, got %+v", res)
	}
	testutil.AssertEqual(t, "from", res.Delta.FromVersion, int64(1))
	testutil.AssertEqual(t, "to", res.Delta.ToVersion, int64(4))

	// Applying the merged delta to the stale copy must land on the same
	// state a full sync would return.
	if err := delta.ApplyDelta(stale, res.Delta); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	current, err := f.eng.Snapshot(context.Background(), "cmdr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gotSig, err := stale.Canonical()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantSig, err := current.Canonical()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(gotSig, wantSig) {
		t.Fatal("merged delta did not reconstruct the current state")
	}
	testutil.AssertEqual(t, "version", stale.StateVersion, current.StateVersion)
}

func TestSyncSince_ClientAheadForcesFull(t *testing.T) {
	f := newFixture(t)
	f.create()

	res, err := f.eng.SyncSince(context.Background(), "cmdr-1", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FullSync || res.World == nil {
		t.Fatalf("a client ahead of the server needs a full sync, got %+v", res)
	}
}

func TestSyncSince_PrunedHistoryForcesFull(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "garrison.db"), store.WithDeltaWindow(2))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{t: t, st: st, rules: &stubRules{}, notes: &recordingNotifier{}, clock: 1_000_000}
	f.eng = New(st, f.rules,
		WithClock(func() int64 { return f.clock }),
		WithNotifier(f.notes),
		WithDayLength(time.Minute),
	)
	f.create()

	for i := 0; i < 5; i++ {
		f.advanceDays(1)
		if _, err := f.eng.Snapshot(context.Background(), "cmdr-1"); err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
	}

	// Versions 2 and 3 fell out of the retained window, so a client at 1
	// cannot be served a chain.
	res, err := f.eng.SyncSince(context.Background(), "cmdr-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FullSync || res.World == nil {
		t.Fatalf("expected a full sync across the pruned gap, got %+v", res)
	}
	testutil.AssertEqual(t, "current", res.CurrentVersion, int64(6))
}

func TestSyncSince_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.SyncSince(context.Background(), "nobody", 0)
	if !errors.Is(err, world.ErrWorldNotFound) {
		t.Fatalf("expected ErrWorldNotFound, got %v", err)
	}
}

func TestReset_StartsOver(t *testing.T) {
	f := newFixture(t)
	f.create()
	f.advanceDays(2)
	if _, err := f.eng.Snapshot(context.Background(), "cmdr-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, err := f.eng.Reset(context.Background(), "cmdr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "version", w.StateVersion, int64(1))
	testutil.AssertEqual(t, "day", w.CurrentDay, 1)

	// A client still holding the old world must be pushed to a full sync.
	res, err := f.eng.SyncSince(context.Background(), "cmdr-1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FullSync {
		t.Fatalf("expected a full sync after reset, got %+v", res)
	}
	testutil.AssertEqual(t, "notified", f.notes.all(), []int64{2, 1})
}

func TestConflict_CarriesFreshSnapshot(t *testing.T) {
	f := newFixture(t)
	f.create()

	_, err := f.eng.SubmitDecision(context.Background(), "cmdr-1", "ruling", "a", "")
	if !errors.Is(err, world.ErrNoPendingDecision) {
		t.Fatalf("expected ErrNoPendingDecision, got %v", err)
	}
	var conflict *Conflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected a Conflict, got %T", err)
	}
	if conflict.World == nil {
		t.Fatal("conflict should carry the committed snapshot")
	}
	testutil.AssertEqual(t, "snapshot version", conflict.World.StateVersion, int64(1))
}

func TestSubmitDecision_UnknownOptionIsNotAConflict(t *testing.T) {
	f := newFixture(t)
	f.raiseDecisionOnDay(2)
	f.create()
	f.advanceDays(1)

	w, err := f.eng.Snapshot(context.Background(), "cmdr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token := w.Pause.Token

	_, err = f.eng.SubmitDecision(context.Background(), "cmdr-1", "ruling", "zzz", token)
	if !errors.Is(err, world.ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
	var conflict *Conflict
	if errors.As(err, &conflict) {
		t.Fatal("a bad option id is caller error, not a conflict")
	}

	// The failed submission must not have consumed the pause.
	w, err = f.eng.Snapshot(context.Background(), "cmdr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Pause == nil || w.Pause.Token != token {
		t.Fatal("pause should survive a rejected answer unchanged")
	}
}

func TestTickWorld_DrivesCatchUp(t *testing.T) {
	f := newFixture(t)
	f.create()
	f.advanceDays(2)

	w, err := f.eng.TickWorld(context.Background(), "cmdr-1", 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "day", w.CurrentDay, 3)
	testutil.AssertEqual(t, "version", w.StateVersion, int64(2))
}

func TestListLiveness_Passthrough(t *testing.T) {
	f := newFixture(t)
	f.create()
	if _, err := f.eng.Heartbeat(context.Background(), "cmdr-1", 45_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	live, err := f.eng.ListLiveness(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "count", len(live), 1)
	testutil.AssertEqual(t, "player", live[0].PlayerID, "cmdr-1")
	testutil.AssertEqual(t, "until", live[0].SessionActiveUntilMS, f.clock+45_000)
}

func TestRecentBulletins_CarriesLapseNotice(t *testing.T) {
	f := newFixture(t, WithPauseTTL(time.Minute))
	f.create()

	_, _, err := f.eng.Pause(context.Background(), "cmdr-1", world.PauseSubpage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.advance(2 * time.Minute)
	if _, err := f.eng.Snapshot(context.Background(), "cmdr-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bulletins, err := f.eng.RecentBulletins(context.Background(), "cmdr-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bulletins) == 0 {
		t.Fatal("expected at least the lapse bulletin")
	}
	found := false
	for _, b := range bulletins {
		if b.Kind == world.EventSystem {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a system bulletin, got %+v", bulletins)
	}
}
