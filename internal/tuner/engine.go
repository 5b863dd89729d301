package tuner

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/san-kum/gaintune/internal/control"
	"gonum.org/v1/gonum/stat"
)

// Telemetry keys published by the engine.
const (
	KeyTuning       = "tuner/tuning"
	KeyTrial        = "tuner/trial"
	KeyPhase        = "tuner/phase"
	KeyError        = "tuner/error"
	KeyBest         = "tuner/best"
	KeyBestDuration = "tuner/best_duration"
	KeyTesting      = "tuner/testing"
	KeyLastDuration = "tuner/last_duration"
	keyPIDPrefix    = "pid/"
)

type Engine struct {
	cfg      Config
	tunable  Tunable
	sink     Sink
	history  History
	override OverrideChannel
	rng      Rand
	logger   *slog.Logger
	now      func() time.Time

	probes [6]Delta
	pid    *control.PID

	robustness bool
	st         state
}

type Option func(*Engine)

func WithOverrideChannel(ch OverrideChannel) Option {
	return func(e *Engine) { e.override = ch }
}

// WithRand replaces the seeded source built from Config.Seed.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine for tunable. A nil sink or history discards output.
func New(tunable Tunable, sink Sink, history History, cfg Config, opts ...Option) (*Engine, error) {
	if tunable == nil {
		return nil, fmt.Errorf("%w: nil tunable", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = discardSink{}
	}
	if history == nil {
		history = discardHistory{}
	}

	e := &Engine{
		cfg:     cfg,
		tunable: tunable,
		sink:    sink,
		history: history,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		logger:  slog.Default(),
		now:     time.Now,
		probes:  probeTable(cfg.ProbeStep),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.pid = e.newPID(cfg.Start)
	return e, nil
}

func (e *Engine) newPID(g control.Gains) *control.PID {
	pid := control.NewPID(g)
	pid.AntiWindup = e.cfg.AntiWindup
	pid.IntegralLimit = e.cfg.IntegralLimit
	return pid
}

// OnStart begins a tuning run from Config.Start. A queued override survives.
func (e *Engine) OnStart() error {
	pending := e.st.pendingOverride
	e.st = state{
		phase:           PhaseAwaitingReset,
		start:           e.now(),
		started:         true,
		best:            e.cfg.Start,
		bestDuration:    float64(e.cfg.MaxTicksPerTrial),
		testing:         e.cfg.Start,
		pendingOverride: pending,
	}
	e.pid = e.newPID(e.cfg.Start)

	if e.override != nil {
		e.override.Write("")
	}
	e.sink.PutBool(KeyTuning, true)
	e.sink.PutString(KeyPhase, e.st.phase.String())
	e.publish()

	e.logger.Info("tuning started",
		"start", e.cfg.Start.String(),
		"max_trials", e.cfg.MaxTrials,
		"trials_per_candidate", e.cfg.TrialsPerCandidate)

	if err := e.tunable.StartReset(0); err != nil {
		return &TunableError{Op: "start reset", Err: err}
	}
	return nil
}

// OnStop writes any trials not yet in the history and the best-result
// summary, so an interrupted run keeps what it completed.
func (e *Engine) OnStop() error {
	if !e.st.started {
		return ErrNotStarted
	}
	e.sink.PutBool(KeyTuning, false)
	var errs []error
	if err := e.flushTrials(); err != nil {
		errs = append(errs, err)
	}
	if err := e.history.WriteSummary(e.st.start, e.summary()); err != nil {
		errs = append(errs, fmt.Errorf("tuner: write summary: %w", err))
	}
	return errors.Join(errs...)
}

// Tick advances the run by one control period.
func (e *Engine) Tick() error {
	if !e.st.started {
		return ErrNotStarted
	}
	if e.st.phase == PhaseTerminated {
		return nil
	}
	if e.st.trialsCompleted > e.cfg.MaxTrials {
		return e.terminate()
	}

	e.pollOverride()

	if !e.tunable.ResetFinished() {
		return nil
	}
	if e.st.phase == PhaseAwaitingReset {
		e.beginTrial()
	}

	reading := e.tunable.Error()
	if math.IsNaN(reading) || math.IsInf(reading, 0) {
		return fmt.Errorf("%w: %v at tick %d of trial %d", ErrNonFiniteError, reading, e.st.tick+1, e.st.trialsCompleted+1)
	}
	e.st.lastError = reading
	e.st.tick++
	if math.Abs(reading) < e.cfg.ErrorTolerance {
		e.st.withinTolerance++
	} else {
		e.st.withinTolerance = 0
	}
	e.sink.PutNumber(KeyError, reading)

	if e.st.withinTolerance >= e.cfg.RequiredConsecutiveTicks || e.st.tick >= e.cfg.MaxTicksPerTrial {
		e.setPhase(PhaseEvaluating)
		return e.completeTrial()
	}

	out := e.pid.Calculate(0, reading)
	if err := e.tunable.SetValue(out); err != nil {
		return &TunableError{Op: "set value", Trial: e.st.trialsCompleted + 1, Err: err}
	}
	return nil
}

func (e *Engine) beginTrial() {
	if e.st.pendingOverride != nil && !e.st.robustnessActive {
		e.st.activeOverride = e.st.pendingOverride
		e.st.pendingOverride = nil
		e.pid.SetGains(*e.st.activeOverride)
		e.logger.Info("running override trial", "gains", e.st.activeOverride.String())
	}
	e.setPhase(PhaseRunningTrial)
}

func (e *Engine) completeTrial() error {
	duration := e.st.tick
	e.st.lastDuration = duration
	e.pid.ResetError()
	e.st.tick = 0
	e.st.withinTolerance = 0

	switch {
	case e.st.robustnessActive:
		return e.robustnessTrial(duration)
	case e.st.activeOverride != nil:
		return e.concludeOverride(duration)
	default:
		return e.evaluate(duration)
	}
}

// evaluate scores the candidate under test once all of its repetitions are
// in, or early when one repetition is already no better than the best.
func (e *Engine) evaluate(duration int) error {
	raw := float64(duration)
	slot := e.st.slot
	e.st.slotDurations = append(e.st.slotDurations, raw)
	final := len(e.st.slotDurations) >= e.cfg.TrialsPerCandidate

	if !final && raw < e.st.bestDuration {
		e.record(TrialResult{Slot: slot, Gains: e.st.testing, Duration: duration, Outcome: OutcomePending})
		e.st.slot++
		return e.finishTrial()
	}

	effective := raw
	if final {
		effective = stat.Mean(e.st.slotDurations, nil)
	}

	tested := e.st.testing
	outcome := OutcomeRejected
	if effective < e.st.bestDuration {
		outcome = OutcomeAccepted
		e.st.best = tested
		e.st.bestDuration = effective
		e.st.testing = e.st.delta.Apply(e.st.best)
		e.logger.Info("new best",
			"gains", tested.String(),
			"duration", effective,
			"trial", e.st.trialsCompleted+1)
	} else {
		e.st.testing = e.mutate(e.st.best)
		e.logger.Debug("candidate rejected",
			"gains", tested.String(),
			"duration", effective,
			"next", e.st.testing.String())
	}

	e.record(TrialResult{Slot: slot, Gains: tested, Duration: duration, Effective: effective, Outcome: outcome})
	e.st.slot = 0
	e.st.slotDurations = nil
	return e.finishTrial()
}

// concludeOverride logs an operator trial without scoring it and restarts the
// regular candidate from its first repetition.
func (e *Engine) concludeOverride(duration int) error {
	g := *e.st.activeOverride
	e.st.activeOverride = nil
	e.record(TrialResult{Gains: g, Duration: duration, Effective: float64(duration), Outcome: OutcomeOverride})
	e.logger.Info("override trial finished", "gains", g.String(), "duration", duration)

	e.st.slot = 0
	e.st.slotDurations = nil
	return e.finishTrial()
}

// robustnessTrial records a run of the best gains from a random condition.
// It is not counted and does not change the search; the regular candidate
// resumes at the slot it was on.
func (e *Engine) robustnessTrial(duration int) error {
	e.record(TrialResult{Gains: e.pid.Gains(), Duration: duration, Effective: float64(duration), Outcome: OutcomeRobustness})
	e.st.robustnessActive = false
	e.tunable.GiveInfo(e.report())
	e.pid.SetGains(e.st.testing)
	e.publish()
	return e.scheduleTrial()
}

// startRobustness follows a counted trial with one robustness trial.
func (e *Engine) startRobustness() error {
	e.st.robustnessActive = true
	e.pid.SetGains(e.st.best)
	e.setPhase(PhaseAwaitingReset)
	e.publish()
	if err := e.tunable.SetToRandomState(); err != nil {
		return &TunableError{Op: "set random state", Trial: e.st.trialsCompleted, Err: err}
	}
	return nil
}

func (e *Engine) finishTrial() error {
	e.st.trialsCompleted++
	e.tunable.GiveInfo(e.report())
	e.pid.SetGains(e.st.testing)
	e.publish()
	if e.robustness && e.st.trialsCompleted <= e.cfg.MaxTrials {
		return e.startRobustness()
	}
	return e.scheduleTrial()
}

func (e *Engine) scheduleTrial() error {
	e.setPhase(PhaseAwaitingReset)
	if err := e.tunable.StartReset(e.st.slot); err != nil {
		return &TunableError{Op: "start reset", Trial: e.st.trialsCompleted, Err: err}
	}
	return nil
}

func (e *Engine) terminate() error {
	e.setPhase(PhaseTerminated)
	e.sink.PutBool(KeyTuning, false)
	if e.st.flushed {
		return nil
	}
	e.st.flushed = true

	summary := e.summary()
	e.logger.Info("tuning finished",
		"best", summary.Best.String(),
		"best_duration", summary.BestDuration,
		"trials", summary.Trials)

	var errs []error
	if err := e.flushTrials(); err != nil {
		errs = append(errs, err)
	}
	if err := e.history.WriteSummary(e.st.start, summary); err != nil {
		errs = append(errs, fmt.Errorf("tuner: write summary: %w", err))
	}
	return errors.Join(errs...)
}

// flushTrials hands the results not yet written to the history.
func (e *Engine) flushTrials() error {
	unwritten := e.st.results[e.st.written:]
	if len(unwritten) == 0 {
		return nil
	}
	if err := e.history.WriteTrials(e.st.start, slices.Clone(unwritten)); err != nil {
		return fmt.Errorf("tuner: write trials: %w", err)
	}
	e.st.written = len(e.st.results)
	return nil
}

func (e *Engine) record(r TrialResult) {
	r.Trial = len(e.st.results) + 1
	e.st.results = append(e.st.results, r)
	e.logger.Debug("trial complete",
		"trial", r.Trial,
		"slot", r.Slot,
		"gains", r.Gains.String(),
		"duration", r.Duration,
		"outcome", r.Outcome.String())
}

func (e *Engine) report() Report {
	return Report{
		Best:         e.st.best,
		BestDuration: e.st.bestDuration,
		Testing:      e.st.testing,
		LastDuration: e.st.lastDuration,
	}
}

func (e *Engine) summary() Summary {
	return Summary{Best: e.st.best, BestDuration: e.st.bestDuration, Trials: e.st.trialsCompleted}
}

func (e *Engine) setPhase(p Phase) {
	if e.st.phase == p {
		return
	}
	e.st.phase = p
	e.sink.PutString(KeyPhase, p.String())
}

func (e *Engine) publish() {
	e.sink.PutNumber(KeyTrial, float64(e.st.trialsCompleted))
	e.sink.PutNumber(KeyBestDuration, e.st.bestDuration)
	e.sink.PutNumber(KeyLastDuration, float64(e.st.lastDuration))
	e.sink.PutString(KeyBest, e.st.best.String())
	e.sink.PutString(KeyTesting, e.st.testing.String())
	for name, v := range e.pid.GetParams() {
		e.sink.PutNumber(keyPIDPrefix+name, v)
	}
}

// SetRobustnessProbe toggles robustness trials. While on, every counted trial
// is followed by one uncounted trial of the best gains from a random state.
func (e *Engine) SetRobustnessProbe(on bool) {
	e.robustness = on
}

func (e *Engine) RobustnessProbe() bool {
	return e.robustness
}

// Done reports whether the run has terminated.
func (e *Engine) Done() bool {
	return e.st.phase == PhaseTerminated
}

func (e *Engine) Phase() Phase {
	return e.st.phase
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Start is the start time of the current run, used to key its history.
func (e *Engine) Start() time.Time {
	return e.st.start
}

func (e *Engine) Best() (control.Gains, float64) {
	return e.st.best, e.st.bestDuration
}

func (e *Engine) Testing() control.Gains {
	return e.st.testing
}

func (e *Engine) PendingOverride() (control.Gains, bool) {
	if e.st.pendingOverride == nil {
		return control.Gains{}, false
	}
	return *e.st.pendingOverride, true
}

func (e *Engine) TrialsCompleted() int {
	return e.st.trialsCompleted
}

// Results returns a copy of the trials recorded so far.
func (e *Engine) Results() []TrialResult {
	return slices.Clone(e.st.results)
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Phase:           e.st.phase,
		Start:           e.st.start,
		Trial:           e.st.trialsCompleted,
		MaxTrials:       e.cfg.MaxTrials,
		Slot:            e.st.slot,
		Tick:            e.st.tick,
		WithinTolerance: e.st.withinTolerance,
		Error:           e.st.lastError,
		Best:            e.st.best,
		BestDuration:    e.st.bestDuration,
		Testing:         e.st.testing,
		Running:         e.pid.Gains(),
		LastDuration:    e.st.lastDuration,
		Delta:           e.st.delta,
		Probing:         e.st.trialsCompleted < e.cfg.ProbeTrials,
		OverridePending: e.st.pendingOverride != nil,
		OverrideActive:  e.st.activeOverride != nil,
		Robustness:      e.robustness || e.st.robustnessActive,
	}
}
