package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Runner is the external driver of a tuning run: each tick it calls the
// engine once and then advances the plant. Commands submitted from other
// goroutines run between ticks, so engine and plant are only ever touched
// from the goroutine calling Run.
type Runner struct {
	engine    Engine
	plant     Plant
	observers []Observer
	commands  chan func()
	logger    *slog.Logger
}

func New(engine Engine, plant Plant) *Runner {
	return &Runner{
		engine:    engine,
		plant:     plant,
		observers: make([]Observer, 0),
		commands:  make(chan func(), 16),
		logger:    slog.Default(),
	}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) SetLogger(l *slog.Logger) { r.logger = l }

// Submit queues fn to run between ticks. It blocks if the queue is full and
// gives up when ctx is done.
func (r *Runner) Submit(ctx context.Context, fn func()) error {
	select {
	case r.commands <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Rate < 0 {
		return Result{}, fmt.Errorf("sim: rate must not be negative, got %g", cfg.Rate)
	}

	var pace <-chan time.Time
	if cfg.Rate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.Rate))
		defer ticker.Stop()
		pace = ticker.C
	}

	started := time.Now()
	result := Result{}
	finish := func(err error) (Result, error) {
		result.Elapsed = time.Since(started)
		return result, err
	}

	for {
		if r.engine.Done() {
			result.Finished = true
			return finish(nil)
		}
		if cfg.MaxTicks > 0 && result.Ticks >= cfg.MaxTicks {
			return finish(nil)
		}

		if pace != nil {
			if err := r.wait(ctx, pace); err != nil {
				return finish(err)
			}
		} else {
			select {
			case <-ctx.Done():
				return finish(ctx.Err())
			case fn := <-r.commands:
				fn()
			default:
			}
		}

		if err := r.engine.Tick(); err != nil {
			return finish(fmt.Errorf("sim: engine tick %d: %w", result.Ticks+1, err))
		}
		if err := r.plant.Advance(); err != nil {
			return finish(fmt.Errorf("sim: plant tick %d: %w", result.Ticks+1, err))
		}
		result.Ticks++

		for _, obs := range r.observers {
			obs.OnTick(result.Ticks)
		}
	}
}

// wait blocks until the next paced tick, running commands as they arrive.
func (r *Runner) wait(ctx context.Context, pace <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-r.commands:
			fn()
		case <-pace:
			return nil
		}
	}
}
