package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"

	"github.com/bastionworks/garrison/internal/assets"
	"github.com/bastionworks/garrison/internal/rules"
)

// ContentConfig points at asset files that replace the built-in content.
// Every section is optional; a garrison runs fine on the shipped catalogs.
type ContentConfig struct {
	Names    AssetConfig[*rules.NamePool]    `json:"names"`
	Missions AssetConfig[*rules.MissionSpec] `json:"missions"`
	Councils AssetConfig[*rules.CouncilSpec] `json:"councils"`
}

func (c *ContentConfig) validate() error {
	el := errors.NewErrorList()

	el.Add(c.Names.Validate("names"))
	el.Add(c.Missions.Validate("missions"))
	el.Add(c.Councils.Validate("councils"))

	return el.Err()
}

func (c *ContentConfig) buildRules(cfg rules.Config) (*rules.Set, error) {
	var opts []rules.SetOpt

	if c.Names.Path != "" {
		st, err := c.Names.BuildFileStore()
		if err != nil {
			return nil, fmt.Errorf("creating name store: %w", err)
		}
		opts = append(opts, rules.WithNamePool(st))
	}
	if c.Missions.Path != "" {
		st, err := c.Missions.BuildFileStore()
		if err != nil {
			return nil, fmt.Errorf("creating mission store: %w", err)
		}
		opts = append(opts, rules.WithMissionCatalog(st))
	}
	if c.Councils.Path != "" {
		st, err := c.Councils.BuildFileStore()
		if err != nil {
			return nil, fmt.Errorf("creating council store: %w", err)
		}
		opts = append(opts, rules.WithCouncilCatalog(st))
	}

	return rules.NewSet(cfg, opts...), nil
}

type AssetConfig[T assets.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return nil
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("content: %s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*assets.FileStore[T], error) {
	return assets.NewFileStore[T](c.Path)
}
