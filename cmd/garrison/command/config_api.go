package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/bastionworks/garrison/internal/api"
	"github.com/bastionworks/garrison/internal/engine"
	"github.com/bastionworks/garrison/internal/scheduler"
)

type ApiConfig struct {
	Port            int     `json:"port"`
	RateRPS         float64 `json:"rate_rps"`
	RateBurst       int     `json:"rate_burst"`
	MaxHeartbeatTTL string  `json:"max_heartbeat_ttl"`
}

func (c *ApiConfig) validate() error {
	el := errors.NewErrorList()

	if c.Port < 0 || c.Port > 65535 {
		el.Add(fmt.Errorf("api: port %d out of range", c.Port))
	}
	if c.RateRPS < 0 || c.RateBurst < 0 {
		el.Add(fmt.Errorf("api: rate limits must not be negative"))
	}
	if (c.RateRPS == 0) != (c.RateBurst == 0) {
		el.Add(fmt.Errorf("api: rate_rps and rate_burst must be set together"))
	}
	el.Add(validateDuration("api", "max_heartbeat_ttl", c.MaxHeartbeatTTL))

	return el.Err()
}

func (c *ApiConfig) buildServer(eng *engine.Engine, sched *scheduler.Scheduler) (*api.Server, error) {
	var opts []api.ServerOpt

	if c.Port != 0 {
		opts = append(opts, api.WithPort(c.Port))
	}
	if c.RateRPS > 0 {
		opts = append(opts, api.WithRateLimit(c.RateRPS, c.RateBurst))
	}
	if c.MaxHeartbeatTTL != "" {
		d, err := time.ParseDuration(c.MaxHeartbeatTTL)
		if err != nil {
			return nil, fmt.Errorf("parsing max_heartbeat_ttl: %w", err)
		}
		opts = append(opts, api.WithMaxHeartbeatTTL(d))
	}

	return api.NewServer(eng, sched, opts...), nil
}
