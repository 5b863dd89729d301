package physics

import (
	"fmt"

	"github.com/san-kum/gaintune/internal/dynamo"
)

// Measured is implemented by systems with a single regulated output.
type Measured interface {
	dynamo.System
	Measure(x dynamo.State) float64
	// InitialState is the rest state at the given measured value.
	InitialState(at float64) dynamo.State
}

// Model is a plant dynamics model with tunable parameters.
type Model interface {
	Measured
	dynamo.Configurable
}

func input(u dynamo.Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}

func positive(name string, v float64) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %g", dynamo.ErrParameterBounds, name, v)
	}
	return nil
}

func unknown(name string) error {
	return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
}
