package tuner

import (
	"fmt"

	"github.com/san-kum/gaintune/internal/control"
)

const (
	DefaultErrorTolerance     = 3.0
	DefaultRequiredTicks      = 40
	DefaultMaxTicksPerTrial   = 300
	DefaultMaxTrials          = 100
	DefaultProbeTrials        = 20
	DefaultTrialsPerCandidate = 3
	DefaultDecayFactor        = 0.05
)

// Config holds the trial protocol and search constants.
type Config struct {
	// ErrorTolerance is the |error| below which a tick counts as settled.
	ErrorTolerance float64
	// RequiredConsecutiveTicks settled ticks in a row end a trial.
	RequiredConsecutiveTicks int
	// MaxTicksPerTrial ends a trial that never settles. It is also the
	// initial best duration.
	MaxTicksPerTrial int
	// MaxTrials bounds the run; tuning stops once more trials have completed.
	MaxTrials int
	// ProbeTrials is how many trials use coordinate probing before random
	// mutation takes over.
	ProbeTrials int
	// TrialsPerCandidate is how many times each candidate is run and averaged.
	// 1 accepts or rejects after a single trial.
	TrialsPerCandidate int

	Start control.Gains
	// ProbeStep is the per-axis step of coordinate probing.
	ProbeStep control.Gains
	// MutationScale scales the cubed random draw per axis.
	MutationScale control.Gains
	// DecayFactor scales mutation by bestDuration/MaxTicksPerTrial.
	DecayFactor float64

	AntiWindup    bool
	IntegralLimit float64

	Seed int64
}

func DefaultConfig() Config {
	return Config{
		ErrorTolerance:           DefaultErrorTolerance,
		RequiredConsecutiveTicks: DefaultRequiredTicks,
		MaxTicksPerTrial:         DefaultMaxTicksPerTrial,
		MaxTrials:                DefaultMaxTrials,
		ProbeTrials:              DefaultProbeTrials,
		TrialsPerCandidate:       DefaultTrialsPerCandidate,
		Start:                    control.Gains{Kp: 0.01, Ki: 0.0005, Kd: 0},
		ProbeStep:                control.Gains{Kp: 0.005, Ki: 0.0005, Kd: 0.1},
		MutationScale:            control.Gains{Kp: 4, Ki: 0.25, Kd: 40},
		DecayFactor:              DefaultDecayFactor,
	}
}

func (c Config) Validate() error {
	if c.ErrorTolerance <= 0 {
		return fmt.Errorf("%w: error tolerance must be positive, got %g", ErrInvalidConfig, c.ErrorTolerance)
	}
	if c.RequiredConsecutiveTicks <= 0 {
		return fmt.Errorf("%w: required ticks must be positive, got %d", ErrInvalidConfig, c.RequiredConsecutiveTicks)
	}
	if c.MaxTicksPerTrial <= 0 {
		return fmt.Errorf("%w: max ticks must be positive, got %d", ErrInvalidConfig, c.MaxTicksPerTrial)
	}
	if c.MaxTrials < 0 {
		return fmt.Errorf("%w: max trials must not be negative, got %d", ErrInvalidConfig, c.MaxTrials)
	}
	if c.ProbeTrials < 0 {
		return fmt.Errorf("%w: probe trials must not be negative, got %d", ErrInvalidConfig, c.ProbeTrials)
	}
	if c.TrialsPerCandidate < 1 {
		return fmt.Errorf("%w: trials per candidate must be at least 1, got %d", ErrInvalidConfig, c.TrialsPerCandidate)
	}
	if c.DecayFactor < 0 || c.IntegralLimit < 0 {
		return fmt.Errorf("%w: decay factor and integral limit must not be negative", ErrInvalidConfig)
	}
	if err := c.Start.Validate(); err != nil {
		return fmt.Errorf("%w: start gains: %v", ErrInvalidConfig, err)
	}
	return nil
}
