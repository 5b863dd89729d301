package storage

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gaintune/internal/tuner"
)

// Stats summarises the concluded candidates of a run.
type Stats struct {
	Candidates int
	Accepted   int
	Overrides  int
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
}

func concluded(r tuner.TrialResult) bool {
	return r.Outcome == tuner.OutcomeAccepted || r.Outcome == tuner.OutcomeRejected
}

func ComputeStats(results []tuner.TrialResult) Stats {
	var (
		st        Stats
		durations []float64
	)
	for _, r := range results {
		switch {
		case concluded(r):
			durations = append(durations, r.Effective)
			if r.Outcome == tuner.OutcomeAccepted {
				st.Accepted++
			}
		case r.Outcome == tuner.OutcomeOverride:
			st.Overrides++
		}
	}
	st.Candidates = len(durations)
	if len(durations) == 0 {
		return st
	}
	st.Mean, st.StdDev = stat.MeanStdDev(durations, nil)
	if math.IsNaN(st.StdDev) {
		st.StdDev = 0
	}
	st.Min = floats.Min(durations)
	st.Max = floats.Max(durations)
	return st
}

// BestSeries is the best effective duration after each concluded candidate,
// starting from ceiling.
func BestSeries(results []tuner.TrialResult, ceiling float64) []float64 {
	best := ceiling
	series := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Outcome == tuner.OutcomeAccepted && r.Effective < best {
			best = r.Effective
		}
		if concluded(r) {
			series = append(series, best)
		}
	}
	return series
}

// DurationSeries is the effective duration of each concluded candidate.
func DurationSeries(results []tuner.TrialResult) []float64 {
	series := make([]float64, 0, len(results))
	for _, r := range results {
		if concluded(r) {
			series = append(series, r.Effective)
		}
	}
	return series
}
