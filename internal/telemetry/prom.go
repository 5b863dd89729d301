package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "gaintune"

// PromSink exports telemetry as gauges. Numbers and bools land in
// gaintune_telemetry_value{key}; strings in gaintune_telemetry_info{key,value}
// with only the latest value per key kept.
type PromSink struct {
	values *prometheus.GaugeVec
	info   *prometheus.GaugeVec

	mu      sync.Mutex
	current map[string]string
}

func NewPromSink(reg prometheus.Registerer) *PromSink {
	f := promauto.With(reg)
	return &PromSink{
		values: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "telemetry",
			Name:      "value",
			Help:      "Latest numeric tuner telemetry value by key.",
		}, []string{"key"}),
		info: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "telemetry",
			Name:      "info",
			Help:      "Latest string tuner telemetry value by key, always 1.",
		}, []string{"key", "value"}),
		current: make(map[string]string),
	}
}

func (s *PromSink) PutNumber(key string, v float64) {
	s.values.WithLabelValues(key).Set(v)
}

func (s *PromSink) PutBool(key string, v bool) {
	n := 0.0
	if v {
		n = 1
	}
	s.values.WithLabelValues(key).Set(n)
}

func (s *PromSink) PutString(key, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.current[key]; ok {
		if old == v {
			return
		}
		s.info.DeleteLabelValues(key, old)
	}
	s.current[key] = v
	s.info.WithLabelValues(key, v).Set(1)
}
