package tuner

import (
	"time"

	"github.com/san-kum/gaintune/internal/control"
)

type Phase int

const (
	PhaseAwaitingReset Phase = iota
	PhaseRunningTrial
	PhaseEvaluating
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingReset:
		return "awaiting_reset"
	case PhaseRunningTrial:
		return "running"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseTerminated:
		return "terminated"
	}
	return "unknown"
}

// Outcome classifies a completed trial.
type Outcome int

const (
	// OutcomePending is a non-final repetition still being averaged.
	OutcomePending Outcome = iota
	OutcomeAccepted
	OutcomeRejected
	OutcomeOverride
	OutcomeRobustness
)

var outcomeNames = [...]string{"pending", "accepted", "rejected", "override", "robustness"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

func ParseOutcome(s string) (Outcome, bool) {
	for i, name := range outcomeNames {
		if name == s {
			return Outcome(i), true
		}
	}
	return 0, false
}

// TrialResult is one completed trial. Effective is the duration the candidate
// was judged by and is only set on the trial that concluded it.
type TrialResult struct {
	Trial     int
	Slot      int
	Gains     control.Gains
	Duration  int
	Effective float64
	Outcome   Outcome
}

// Snapshot is a copy of the engine state for observers.
type Snapshot struct {
	Phase           Phase
	Start           time.Time
	Trial           int
	MaxTrials       int
	Slot            int
	Tick            int
	WithinTolerance int
	Error           float64
	Best            control.Gains
	BestDuration    float64
	Testing         control.Gains
	Running         control.Gains
	LastDuration    int
	Delta           Delta
	Probing         bool
	OverridePending bool
	OverrideActive  bool
	Robustness      bool
}

// state is the mutable record of one tuning run.
type state struct {
	phase   Phase
	start   time.Time
	started bool
	flushed bool

	best         control.Gains
	bestDuration float64
	testing      control.Gains

	tick            int
	withinTolerance int
	lastError       float64
	lastDuration    int

	delta      Delta
	probeIndex int

	trialsCompleted int

	slot          int
	slotDurations []float64

	pendingOverride *control.Gains
	activeOverride  *control.Gains
	overrideError   string

	robustnessActive bool

	results []TrialResult
	// written counts the results already handed to the history.
	written int
}
