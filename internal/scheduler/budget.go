package scheduler

import (
	"sync/atomic"
	"time"
)

const (
	DefaultMinBudget  = 8
	DefaultMaxBudget  = 256
	DefaultGrowthStep = 8

	// DefaultSlowCutoff marks a pass as slow when it eats more than half
	// of the default tick interval.
	DefaultSlowCutoff = DefaultInterval / 2

	slowStreakLimit = 3
)

// Budget is the adaptive per-world operation grant for background ticks.
// Three consecutive slow passes halve it; fast passes grow it back one
// step at a time, clamped to [min, max].
//
// Everything is atomics. Readers get a best-effort gauge, not a
// consistency-bearing value; the grant may move between Grant and Observe.
type Budget struct {
	grant      atomic.Int64
	slowStreak atomic.Int64

	min, max   int64
	growth     int64
	slowCutoff time.Duration
}

type BudgetOpt func(*Budget)

func WithBudgetRange(min, max int) BudgetOpt {
	return func(b *Budget) {
		b.min = int64(min)
		b.max = int64(max)
	}
}

func WithGrowthStep(n int) BudgetOpt {
	return func(b *Budget) {
		b.growth = int64(n)
	}
}

func WithSlowCutoff(d time.Duration) BudgetOpt {
	return func(b *Budget) {
		b.slowCutoff = d
	}
}

func NewBudget(opts ...BudgetOpt) *Budget {
	b := &Budget{
		min:        DefaultMinBudget,
		max:        DefaultMaxBudget,
		growth:     DefaultGrowthStep,
		slowCutoff: DefaultSlowCutoff,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.min < 1 {
		b.min = 1
	}
	if b.max < b.min {
		b.max = b.min
	}
	b.grant.Store(b.max)
	return b
}

// Grant returns the current per-world operation allowance.
func (b *Budget) Grant() int {
	return int(b.grant.Load())
}

// Observe feeds one pass duration back into the budget.
func (b *Budget) Observe(elapsed time.Duration) {
	if elapsed > b.slowCutoff {
		if b.slowStreak.Add(1) < slowStreakLimit {
			return
		}
		b.slowStreak.Store(0)
		g := b.grant.Load() / 2
		if g < b.min {
			g = b.min
		}
		b.grant.Store(g)
		return
	}

	b.slowStreak.Store(0)
	g := b.grant.Load() + b.growth
	if g > b.max {
		g = b.max
	}
	b.grant.Store(g)
}
