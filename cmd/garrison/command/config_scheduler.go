package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/bastionworks/garrison/internal/engine"
	"github.com/bastionworks/garrison/internal/scheduler"
)

type SchedulerConfig struct {
	Interval     string `json:"interval"`
	IdleInterval string `json:"idle_interval"`
	BudgetMin    int    `json:"budget_min"`
	BudgetMax    int    `json:"budget_max"`
}

func (c *SchedulerConfig) validate() error {
	el := errors.NewErrorList()

	el.Add(validateDuration("scheduler", "interval", c.Interval))
	el.Add(validateDuration("scheduler", "idle_interval", c.IdleInterval))

	if c.BudgetMin < 0 || c.BudgetMax < 0 {
		el.Add(fmt.Errorf("scheduler: budgets must not be negative"))
	}
	if (c.BudgetMin == 0) != (c.BudgetMax == 0) {
		el.Add(fmt.Errorf("scheduler: budget_min and budget_max must be set together"))
	}
	if c.BudgetMax > 0 && c.BudgetMin > c.BudgetMax {
		el.Add(fmt.Errorf("scheduler: budget_min exceeds budget_max"))
	}

	return el.Err()
}

func (c *SchedulerConfig) buildScheduler(eng *engine.Engine) (*scheduler.Scheduler, error) {
	var opts []scheduler.Opt

	if c.Interval != "" {
		d, err := time.ParseDuration(c.Interval)
		if err != nil {
			return nil, fmt.Errorf("parsing interval: %w", err)
		}
		opts = append(opts, scheduler.WithInterval(d))
	}
	if c.IdleInterval != "" {
		d, err := time.ParseDuration(c.IdleInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing idle_interval: %w", err)
		}
		opts = append(opts, scheduler.WithIdleInterval(d))
	}
	if c.BudgetMax > 0 {
		opts = append(opts, scheduler.WithBudget(scheduler.NewBudget(
			scheduler.WithBudgetRange(c.BudgetMin, c.BudgetMax),
		)))
	}

	return scheduler.New(eng, opts...), nil
}
