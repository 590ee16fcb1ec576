package scheduler

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestBudget_StartsWideOpen(t *testing.T) {
	b := NewBudget()
	testutil.AssertEqual(t, "grant", b.Grant(), DefaultMaxBudget)
}

func TestBudget_ThreeSlowPassesHalve(t *testing.T) {
	b := NewBudget()

	b.Observe(time.Second)
	b.Observe(time.Second)
	testutil.AssertEqual(t, "grant after two", b.Grant(), DefaultMaxBudget)

	b.Observe(time.Second)
	testutil.AssertEqual(t, "grant after three", b.Grant(), DefaultMaxBudget/2)

	b.Observe(time.Second)
	b.Observe(time.Second)
	b.Observe(time.Second)
	testutil.AssertEqual(t, "grant after six", b.Grant(), DefaultMaxBudget/4)
}

func TestBudget_FastPassResetsStreak(t *testing.T) {
	b := NewBudget()

	b.Observe(time.Second)
	b.Observe(time.Second)
	b.Observe(time.Millisecond)
	b.Observe(time.Second)
	b.Observe(time.Second)

	// Never three slow passes in a row, so no halving.
	testutil.AssertEqual(t, "grant", b.Grant(), DefaultMaxBudget)
}

func TestBudget_RecoversAdditively(t *testing.T) {
	b := NewBudget(WithBudgetRange(10, 30), WithGrowthStep(8))

	b.Observe(time.Second)
	b.Observe(time.Second)
	b.Observe(time.Second)
	testutil.AssertEqual(t, "halved", b.Grant(), 15)

	b.Observe(time.Millisecond)
	testutil.AssertEqual(t, "one step back", b.Grant(), 23)

	b.Observe(time.Millisecond)
	testutil.AssertEqual(t, "clamped at max", b.Grant(), 30)
}

func TestBudget_HalvingClampsAtMin(t *testing.T) {
	b := NewBudget(WithBudgetRange(12, 16))

	for i := 0; i < 9; i++ {
		b.Observe(time.Second)
	}
	testutil.AssertEqual(t, "grant", b.Grant(), 12)
}

func TestBudget_SanitizesRange(t *testing.T) {
	b := NewBudget(WithBudgetRange(0, -5))
	testutil.AssertEqual(t, "grant", b.Grant(), 1)

	b.Observe(time.Second)
	b.Observe(time.Second)
	b.Observe(time.Second)
	testutil.AssertEqual(t, "still one", b.Grant(), 1)
}

func TestBudget_CustomSlowCutoff(t *testing.T) {
	b := NewBudget(WithBudgetRange(10, 100), WithSlowCutoff(10*time.Millisecond))

	b.Observe(50 * time.Millisecond)
	b.Observe(50 * time.Millisecond)
	b.Observe(50 * time.Millisecond)
	testutil.AssertEqual(t, "grant", b.Grant(), 50)
}
