package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gaintune/internal/control"
	"github.com/san-kum/gaintune/internal/plant"
	"github.com/san-kum/gaintune/internal/tuner"
)

const (
	DefaultPlant      = "servo"
	DefaultIntegrator = "rk4"
	DefaultDt         = 0.02
	DefaultSeed       = 42
	DefaultDataDir    = ".gaintune"
)

type Config struct {
	Plant       string             `yaml:"plant"`
	Integrator  string             `yaml:"integrator"`
	Dt          float64            `yaml:"dt"`
	Rate        float64            `yaml:"rate"`
	Seed        int64              `yaml:"seed"`
	DataDir     string             `yaml:"data_dir"`
	Tuner       TunerConfig        `yaml:"tuner"`
	Start       control.Gains      `yaml:"start"`
	PID         PIDConfig          `yaml:"pid"`
	PlantParams plant.Params       `yaml:"plant_params"`
	ModelParams map[string]float64 `yaml:"model_params,omitempty"`
}

type TunerConfig struct {
	ErrorTolerance     float64 `yaml:"error_tolerance"`
	RequiredTicks      int     `yaml:"required_ticks"`
	MaxTicks           int     `yaml:"max_ticks"`
	MaxTrials          int     `yaml:"max_trials"`
	ProbeTrials        int     `yaml:"probe_trials"`
	TrialsPerCandidate int     `yaml:"trials_per_candidate"`
	DecayFactor        float64 `yaml:"decay_factor"`
}

type PIDConfig struct {
	AntiWindup    bool    `yaml:"anti_windup"`
	IntegralLimit float64 `yaml:"integral_limit"`
}

func DefaultConfig() *Config {
	t := tuner.DefaultConfig()
	return &Config{
		Plant:      DefaultPlant,
		Integrator: DefaultIntegrator,
		Dt:         DefaultDt,
		Seed:       DefaultSeed,
		DataDir:    DefaultDataDir,
		Tuner: TunerConfig{
			ErrorTolerance:     t.ErrorTolerance,
			RequiredTicks:      t.RequiredConsecutiveTicks,
			MaxTicks:           t.MaxTicksPerTrial,
			MaxTrials:          t.MaxTrials,
			ProbeTrials:        t.ProbeTrials,
			TrialsPerCandidate: t.TrialsPerCandidate,
			DecayFactor:        t.DecayFactor,
		},
		Start: t.Start,
		PlantParams: plant.Params{
			Target:       90,
			ResetTicks:   25,
			OutputLimit:  1,
			RandomSpread: 60,
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
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
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

// TunerConfig builds the engine configuration. Probe steps and mutation
// scales are not configurable and keep their defaults.
func (c *Config) TunerConfig() tuner.Config {
	t := tuner.DefaultConfig()
	t.ErrorTolerance = c.Tuner.ErrorTolerance
	t.RequiredConsecutiveTicks = c.Tuner.RequiredTicks
	t.MaxTicksPerTrial = c.Tuner.MaxTicks
	t.MaxTrials = c.Tuner.MaxTrials
	t.ProbeTrials = c.Tuner.ProbeTrials
	t.TrialsPerCandidate = c.Tuner.TrialsPerCandidate
	t.DecayFactor = c.Tuner.DecayFactor
	t.Start = c.Start
	t.AntiWindup = c.PID.AntiWindup
	t.IntegralLimit = c.PID.IntegralLimit
	t.Seed = c.Seed
	return t
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Rate < 0 {
		return fmt.Errorf("config: rate must not be negative, got %g", c.Rate)
	}
	if c.Plant == "" {
		return fmt.Errorf("config: plant is required")
	}
	if err := c.PlantParams.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.TunerConfig().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
