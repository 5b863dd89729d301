package config

import (
	"sort"

	"github.com/san-kum/gaintune/internal/control"
)

// preset builds a full configuration for plant from the defaults.
func preset(plant string, target float64, mutate func(c *Config)) *Config {
	c := DefaultConfig()
	c.Plant = plant
	c.PlantParams.Target = target
	if mutate != nil {
		mutate(c)
	}
	return c
}

var Presets = map[string]map[string]*Config{
	"servo": {
		"quick": preset("servo", 90, func(c *Config) {
			c.Tuner.MaxTrials = 30
			c.Tuner.TrialsPerCandidate = 1
		}),
		"thorough": preset("servo", 90, func(c *Config) {
			c.Tuner.MaxTrials = 300
		}),
		"noisy": preset("servo", 90, func(c *Config) {
			c.PlantParams.Noise = 1.5
			c.PID.AntiWindup = true
		}),
	},
	"pendulum": {
		"lift": preset("pendulum", 90, func(c *Config) {
			c.PlantParams.RandomSpread = 45
		}),
		"horizon": preset("pendulum", 45, func(c *Config) {
			c.Start = control.Gains{Kp: 0.05, Ki: 0.001}
			c.PID.IntegralLimit = 2000
		}),
	},
	"spring_mass": {
		"push": preset("spring_mass", 50, func(c *Config) {
			c.PlantParams.RandomSpread = 30
		}),
		"chain": preset("spring_mass", 50, func(c *Config) {
			c.ModelParams = map[string]float64{"masses": 3}
			c.Tuner.MaxTicks = 500
			c.Integrator = "rk4"
			c.Dt = 0.01
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(plant, name string) *Config {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	cfg, ok := plantPresets[name]
	if !ok {
		return nil
	}
	c := *cfg
	if cfg.ModelParams != nil {
		c.ModelParams = make(map[string]float64, len(cfg.ModelParams))
		for k, v := range cfg.ModelParams {
			c.ModelParams[k] = v
		}
	}
	return &c
}

func ListPresets(plant string) []string {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
