package metrics

import (
	"log/slog"
	"maps"

	"github.com/san-kum/gaintune/internal/telemetry"
)

// KeyPrefix prefixes the telemetry key of every metric.
const KeyPrefix = "metrics/"

// Sample is the loop state after one tick.
type Sample struct {
	// Trial identifies the running trial. A change starts a new one.
	Trial   int
	Running bool
	Error   float64
	Output  float64
}

// Recorder feeds samples to its metrics while a trial runs and publishes
// their values once it ends. It implements sim.Observer.
type Recorder struct {
	metrics []Metric
	sample  func() Sample
	sink    telemetry.Sink
	logger  *slog.Logger

	active bool
	trial  int
	last   map[string]float64
}

func NewRecorder(sample func() Sample, sink telemetry.Sink, logger *slog.Logger, metrics ...Metric) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{metrics: metrics, sample: sample, sink: sink, logger: logger}
}

func (r *Recorder) OnTick(int) {
	s := r.sample()
	if r.active && (!s.Running || s.Trial != r.trial) {
		r.publish()
	}
	if !s.Running {
		return
	}
	if !r.active {
		r.active = true
		r.trial = s.Trial
		for _, m := range r.metrics {
			m.Reset()
		}
	}
	for _, m := range r.metrics {
		m.Observe(s.Error, s.Output)
	}
}

func (r *Recorder) publish() {
	r.active = false
	r.last = make(map[string]float64, len(r.metrics))
	attrs := make([]any, 0, 2*len(r.metrics)+2)
	attrs = append(attrs, "trial", r.trial)
	for _, m := range r.metrics {
		v := m.Value()
		r.last[m.Name()] = v
		r.sink.PutNumber(KeyPrefix+m.Name(), v)
		attrs = append(attrs, m.Name(), v)
	}
	r.logger.Debug("trial response", attrs...)
}

// Last returns the metrics of the most recently finished trial.
func (r *Recorder) Last() map[string]float64 {
	return maps.Clone(r.last)
}
