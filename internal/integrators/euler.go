package integrators

import "github.com/san-kum/gaintune/internal/dynamo"

// Euler is first-order explicit integration. Cheap, and good enough for the
// heavily damped plants at small dt.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	axpy(result, x, dt, dx)
	return result
}
