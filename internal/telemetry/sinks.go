package telemetry

import (
	"context"
	"log/slog"
)

// Sink matches tuner.Sink.
type Sink interface {
	PutNumber(key string, v float64)
	PutString(key, v string)
	PutBool(key string, v bool)
}

// LogSink writes every telemetry update as a structured log record.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, level: level}
}

func (s *LogSink) log(key string, v any) {
	s.logger.Log(context.Background(), s.level, "telemetry", slog.String("key", key), slog.Any("value", v))
}

func (s *LogSink) PutNumber(key string, v float64) { s.log(key, v) }
func (s *LogSink) PutString(key, v string)         { s.log(key, v) }
func (s *LogSink) PutBool(key string, v bool)      { s.log(key, v) }

// Multi fans every write out to each sink in order.
type Multi []Sink

func (m Multi) PutNumber(key string, v float64) {
	for _, s := range m {
		s.PutNumber(key, v)
	}
}

func (m Multi) PutString(key, v string) {
	for _, s := range m {
		s.PutString(key, v)
	}
}

func (m Multi) PutBool(key string, v bool) {
	for _, s := range m {
		s.PutBool(key, v)
	}
}

// Filter forwards only keys accepted by Allow.
type Filter struct {
	Sink  Sink
	Allow func(key string) bool
}

func (f Filter) PutNumber(key string, v float64) {
	if f.Allow(key) {
		f.Sink.PutNumber(key, v)
	}
}

func (f Filter) PutString(key, v string) {
	if f.Allow(key) {
		f.Sink.PutString(key, v)
	}
}

func (f Filter) PutBool(key string, v bool) {
	if f.Allow(key) {
		f.Sink.PutBool(key, v)
	}
}
