package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/rcmg"
	"github.com/san-kum/chainsim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSystem    = "pendulum"
	DefaultDuration  = 10.0
	DefaultBatchSize = 8
	DefaultBatches   = 1
	DefaultDataDir   = "data"
)

// ErrUnknownSystem is returned for a system name with no description.
var ErrUnknownSystem = errors.New("config: unknown system")

type Config struct {
	System  string        `yaml:"system"`
	Custom  *SystemSpec   `yaml:"custom,omitempty"`
	Sim     SimConfig     `yaml:"sim"`
	RCMG    rcmg.Config   `yaml:"rcmg"`
	Dataset DatasetConfig `yaml:"dataset"`
}

// SimConfig sets up a rollout. A zero Dt keeps the system's step; nil Q or
// QD start from the joints' zero configuration and rest.
type SimConfig struct {
	Duration      float64   `yaml:"duration"`
	Dt            float64   `yaml:"dt"`
	Q             []float64 `yaml:"q,omitempty"`
	QD            []float64 `yaml:"qd,omitempty"`
	ValidateState bool      `yaml:"validate_state"`
}

type DatasetConfig struct {
	BatchSize     int    `yaml:"batch_size"`
	Batches       int    `yaml:"batches"`
	Seed          uint64 `yaml:"seed"`
	Dir           string `yaml:"dir"`
	Shuffle       bool   `yaml:"shuffle"`
	RandomizeAxes bool   `yaml:"randomize_axes"`
}

func DefaultConfig() *Config {
	return &Config{
		System: DefaultSystem,
		Sim: SimConfig{
			Duration:      DefaultDuration,
			ValidateState: true,
		},
		RCMG: rcmg.DefaultConfig(),
		Dataset: DatasetConfig{
			BatchSize: DefaultBatchSize,
			Batches:   DefaultBatches,
			Dir:       DefaultDataDir,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Spec returns the system description: the inline one if present, else the
// named one.
func (c *Config) Spec() (SystemSpec, error) {
	if c.Custom != nil {
		return *c.Custom, nil
	}
	spec, ok := Systems[c.System]
	if !ok {
		return SystemSpec{}, fmt.Errorf("%w: %q", ErrUnknownSystem, c.System)
	}
	return spec, nil
}

// BuildSystem constructs the configured system, applying the sim dt
// override.
func (c *Config) BuildSystem() (*dynamo.System, error) {
	spec, err := c.Spec()
	if err != nil {
		return nil, err
	}
	sys, err := spec.Build()
	if err != nil {
		return nil, err
	}
	if c.Sim.Dt > 0 {
		return sys.Replace(dynamo.WithDt(c.Sim.Dt))
	}
	return sys, nil
}

func (c *Config) InitState(sys *dynamo.System) (dynamo.State, error) {
	return dynamo.NewState(sys, c.Sim.Q, c.Sim.QD)
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{Duration: c.Sim.Duration, ValidateState: c.Sim.ValidateState}
}

func (c *Config) Validate() error {
	if c.Sim.Duration <= 0 {
		return fmt.Errorf("%w: sim.duration must be positive, got %f", dynamo.ErrParameterBounds, c.Sim.Duration)
	}
	if c.Sim.Dt < 0 {
		return fmt.Errorf("%w: sim.dt must not be negative, got %f", dynamo.ErrParameterBounds, c.Sim.Dt)
	}
	if c.Dataset.BatchSize < 1 || c.Dataset.Batches < 1 {
		return fmt.Errorf("%w: dataset needs positive batch_size and batches", dynamo.ErrParameterBounds)
	}
	return c.RCMG.Validate()
}
