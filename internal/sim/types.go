package sim

import "time"

// Engine is the tick-driven controller being driven.
type Engine interface {
	Tick() error
	Done() bool
}

// Plant is stepped once per tick after the engine.
type Plant interface {
	Advance() error
}

// Observer is called after every tick on the runner goroutine.
type Observer interface {
	OnTick(tick int)
}

type ObserverFunc func(tick int)

func (f ObserverFunc) OnTick(tick int) { f(tick) }

type Config struct {
	// Rate paces ticks per second. 0 runs as fast as possible.
	Rate float64
	// MaxTicks stops the run early. 0 means until the engine is done.
	MaxTicks int
}

type Result struct {
	Ticks   int
	Elapsed time.Duration
	// Finished is true when the engine terminated on its own.
	Finished bool
}
