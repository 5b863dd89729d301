package tuner

import (
	"errors"
	"math"
	"time"
)

// fakeTunable reports a large error for the first settle(n) ticks of its
// n-th reset and zero afterwards, so a trial lasts settle(n)+40 ticks.
type fakeTunable struct {
	settle     func(reset int) int
	resetDelay int

	resets       int
	tick         int
	pending      int
	errorCalls   int
	randomStates int
	slots        []int
	values       []float64
	infos        []Report

	nanAt    int
	setErr   error
	resetErr error
}

func settleAfter(n int) func(int) int {
	return func(int) int { return n }
}

func (f *fakeTunable) Error() float64 {
	f.errorCalls++
	f.tick++
	if f.nanAt > 0 && f.errorCalls == f.nanAt {
		return math.NaN()
	}
	if f.tick <= f.settle(f.resets) {
		return 10
	}
	return 0
}

func (f *fakeTunable) ResetFinished() bool {
	if f.pending > 0 {
		f.pending--
		return false
	}
	return true
}

func (f *fakeTunable) SetValue(v float64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeTunable) StartReset(slot int) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resets++
	f.tick = 0
	f.pending = f.resetDelay
	f.slots = append(f.slots, slot)
	return nil
}

func (f *fakeTunable) SetToRandomState() error {
	f.randomStates++
	f.resets++
	f.tick = 0
	f.pending = f.resetDelay
	return nil
}

func (f *fakeTunable) GiveInfo(r Report) {
	f.infos = append(f.infos, r)
}

type recordingHistory struct {
	trialWrites int
	trials      []TrialResult
	summaries   []Summary
	starts      []time.Time
	fail        error
}

func (h *recordingHistory) WriteTrials(start time.Time, results []TrialResult) error {
	h.trialWrites++
	h.trials = append(h.trials, results...)
	h.starts = append(h.starts, start)
	return h.fail
}

func (h *recordingHistory) WriteSummary(start time.Time, s Summary) error {
	h.summaries = append(h.summaries, s)
	return h.fail
}

type recordingSink struct {
	numbers map[string]float64
	strings map[string]string
	bools   map[string]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		numbers: map[string]float64{},
		strings: map[string]string{},
		bools:   map[string]bool{},
	}
}

func (s *recordingSink) PutNumber(k string, v float64) { s.numbers[k] = v }
func (s *recordingSink) PutString(k, v string)         { s.strings[k] = v }
func (s *recordingSink) PutBool(k string, v bool)      { s.bools[k] = v }

type fakeChannel struct {
	value  string
	writes []string
}

func (c *fakeChannel) Read() string { return c.value }

func (c *fakeChannel) Write(v string) {
	c.value = v
	c.writes = append(c.writes, v)
}

var fixedStart = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedStart }

var errStuck = errors.New("tuner test: trial did not complete")

// runTrial ticks until one more trial has been counted.
func runTrial(e *Engine) error {
	want := e.TrialsCompleted() + 1
	for i := 0; i < 10_000; i++ {
		if err := e.Tick(); err != nil {
			return err
		}
		if e.TrialsCompleted() >= want || e.Done() {
			return nil
		}
	}
	return errStuck
}

func runTrials(e *Engine, n int) error {
	for i := 0; i < n; i++ {
		if err := runTrial(e); err != nil {
			return err
		}
	}
	return nil
}

// runUntilResults ticks until at least n results have been recorded.
func runUntilResults(e *Engine, n int) error {
	for i := 0; i < 100_000; i++ {
		if len(e.st.results) >= n {
			return nil
		}
		if err := e.Tick(); err != nil {
			return err
		}
	}
	return errStuck
}

func immediateConfig() Config {
	cfg := DefaultConfig()
	cfg.TrialsPerCandidate = 1
	cfg.Seed = 1
	return cfg
}
