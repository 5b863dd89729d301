package tuner

import (
	"time"

	"github.com/san-kum/gaintune/internal/control"
)

// Tunable is the physical quantity being tuned. The engine always drives its
// error toward zero.
type Tunable interface {
	// Error is the current deviation from target.
	Error() float64
	// ResetFinished reports whether the last requested reset has completed.
	ResetFinished() bool
	// SetValue applies the control output for one tick.
	SetValue(output float64) error
	// StartReset requests a return to the start condition. slot is the
	// repetition index of the candidate about to run, 0 for a fresh one.
	StartReset(slot int) error
	// SetToRandomState moves the tunable to a random condition for a
	// robustness trial.
	SetToRandomState() error
	// GiveInfo is a progress notification. It must not block or fail.
	GiveInfo(r Report)
}

// Report is pushed to the tunable after every completed trial.
type Report struct {
	Best         control.Gains
	BestDuration float64
	Testing      control.Gains
	LastDuration int
}

// Sink is a write-only telemetry table.
type Sink interface {
	PutNumber(key string, v float64)
	PutString(key, v string)
	PutBool(key string, v bool)
}

// History persists the results of a tuning run keyed by its start time.
type History interface {
	WriteTrials(start time.Time, results []TrialResult) error
	WriteSummary(start time.Time, s Summary) error
}

// OverrideChannel carries operator-suggested gains as "kp,ki,kd" text. The
// engine clears it on success and writes an error message back on failure.
type OverrideChannel interface {
	Read() string
	Write(v string)
}

// Rand is the random source for mutation. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Summary is the best result of a run.
type Summary struct {
	Best         control.Gains
	BestDuration float64
	Trials       int
}

type discardSink struct{}

func (discardSink) PutNumber(string, float64) {}
func (discardSink) PutString(string, string)  {}
func (discardSink) PutBool(string, bool)      {}

type discardHistory struct{}

func (discardHistory) WriteTrials(time.Time, []TrialResult) error { return nil }
func (discardHistory) WriteSummary(time.Time, Summary) error      { return nil }
