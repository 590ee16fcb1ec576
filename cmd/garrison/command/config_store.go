package command

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/bastionworks/garrison/internal/store"
)

type StoreConfig struct {
	Path              string `json:"path"`
	DeltaWindow       int    `json:"delta_window"`
	BulletinRetention int    `json:"bulletin_retention"`
}

func (c *StoreConfig) validate() error {
	el := errors.NewErrorList()

	if c.Path == "" {
		el.Add(fmt.Errorf("store: path is required"))
	}
	if c.DeltaWindow < 0 {
		el.Add(fmt.Errorf("store: delta_window must not be negative"))
	}
	if c.BulletinRetention < 0 {
		el.Add(fmt.Errorf("store: bulletin_retention must not be negative"))
	}

	return el.Err()
}

func (c *StoreConfig) open() (*store.Store, error) {
	var opts []store.StoreOpt
	if c.DeltaWindow > 0 {
		opts = append(opts, store.WithDeltaWindow(c.DeltaWindow))
	}
	if c.BulletinRetention > 0 {
		opts = append(opts, store.WithBulletinRetention(c.BulletinRetention))
	}

	return store.Open(c.Path, opts...)
}
