package tuner

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted indicates Tick or OnStop was called before OnStart.
	ErrNotStarted = errors.New("tuner: engine not started")

	// ErrNonFiniteError indicates the tunable reported a NaN or infinite error.
	ErrNonFiniteError = errors.New("tuner: tunable reported non-finite error")

	// ErrMalformedOverride indicates override text that is not a valid "kp,ki,kd".
	ErrMalformedOverride = errors.New("tuner: malformed override")

	// ErrInvalidConfig indicates an unusable tuning configuration.
	ErrInvalidConfig = errors.New("tuner: invalid config")
)

// TunableError wraps a failed call on the tunable.
type TunableError struct {
	Op    string
	Trial int
	Err   error
}

func (e *TunableError) Error() string {
	return fmt.Sprintf("tuner: %s (trial %d): %v", e.Op, e.Trial, e.Err)
}

func (e *TunableError) Unwrap() error {
	return e.Err
}
