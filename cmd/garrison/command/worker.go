package command

import (
	"fmt"

	"github.com/pixil98/go-service/service"

	"github.com/bastionworks/garrison/internal/engine"
	"github.com/bastionworks/garrison/internal/messaging"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	st, err := cfg.Store.open()
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	ruleset, err := cfg.Content.buildRules(cfg.Rules.toRules())
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}

	// The embedded NATS server carries delta announcements to clients.
	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	engOpts, err := cfg.Engine.engineOpts()
	if err != nil {
		return nil, fmt.Errorf("configuring engine: %w", err)
	}
	engOpts = append(engOpts, engine.WithNotifier(messaging.NewDeltaNotifier(nats)))
	eng := engine.New(st, ruleset, engOpts...)

	sched, err := cfg.Scheduler.buildScheduler(eng)
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	apiServer, err := cfg.Api.buildServer(eng, sched)
	if err != nil {
		return nil, fmt.Errorf("creating api server: %w", err)
	}

	return service.WorkerList{
		"nats":      nats,
		"scheduler": sched,
		"api":       apiServer,
	}, nil
}
