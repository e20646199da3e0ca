// Package config loads sennatag's YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/praetorian-inc/sennatag/pkg/annotate"
	"github.com/praetorian-inc/sennatag/pkg/engine"
	"github.com/praetorian-inc/sennatag/pkg/store"
)

// DefaultStorePath is the store written by "sennatag tag" when none is given.
const DefaultStorePath = "sennatag.db"

// Config is the complete file configuration.
type Config struct {
	Engine   engine.Config    `yaml:"engine"`
	Annotate annotate.Options `yaml:"annotate"`
	Store    store.Config     `yaml:"store"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine:   engine.DefaultConfig(),
		Annotate: annotate.DefaultOptions(),
		Store:    store.Config{Path: DefaultStorePath},
	}
}

// Parse reads YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// Load reads a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
