package command

import (
	"github.com/pixil98/go-errors"
)

type Config struct {
	Store     StoreConfig     `json:"store"`
	Engine    EngineConfig    `json:"engine"`
	Rules     RulesConfig     `json:"rules"`
	Content   ContentConfig   `json:"content"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Api       ApiConfig       `json:"api"`
	Nats      NatsConfig      `json:"nats"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	el.Add(c.Store.validate())
	el.Add(c.Engine.validate())
	el.Add(c.Rules.validate())
	el.Add(c.Content.validate())
	el.Add(c.Scheduler.validate())
	el.Add(c.Api.validate())
	el.Add(c.Nats.validate())

	return el.Err()
}
