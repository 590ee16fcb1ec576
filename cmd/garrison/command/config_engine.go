package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/bastionworks/garrison/internal/engine"
)

// EngineConfig tunes the simulation clock. Durations are strings so configs
// can say "20m" instead of counting milliseconds.
type EngineConfig struct {
	DayLength    string `json:"day_length"`
	PauseTTL     string `json:"pause_ttl"`
	HeartbeatTTL string `json:"heartbeat_ttl"`
}

func (c *EngineConfig) validate() error {
	el := errors.NewErrorList()

	el.Add(validateDuration("engine", "day_length", c.DayLength))
	el.Add(validateDuration("engine", "pause_ttl", c.PauseTTL))
	el.Add(validateDuration("engine", "heartbeat_ttl", c.HeartbeatTTL))

	return el.Err()
}

// validateDuration accepts an empty string, which means "use the default".
func validateDuration(section, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: parsing %s: %w", section, name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: %s must be positive", section, name)
	}
	return nil
}

func (c *EngineConfig) engineOpts() ([]engine.Opt, error) {
	var opts []engine.Opt

	if c.DayLength != "" {
		d, err := time.ParseDuration(c.DayLength)
		if err != nil {
			return nil, fmt.Errorf("parsing day_length: %w", err)
		}
		opts = append(opts, engine.WithDayLength(d))
	}
	if c.PauseTTL != "" {
		d, err := time.ParseDuration(c.PauseTTL)
		if err != nil {
			return nil, fmt.Errorf("parsing pause_ttl: %w", err)
		}
		opts = append(opts, engine.WithPauseTTL(d))
	}
	if c.HeartbeatTTL != "" {
		d, err := time.ParseDuration(c.HeartbeatTTL)
		if err != nil {
			return nil, fmt.Errorf("parsing heartbeat_ttl: %w", err)
		}
		opts = append(opts, engine.WithHeartbeatTTL(d))
	}

	return opts, nil
}
