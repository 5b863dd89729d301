package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/gaintune/internal/dynamo"
)

// oscillator is x'' = -x.
type oscillator struct{}

func (oscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (oscillator) StateDim() int   { return 2 }
func (oscillator) ControlDim() int { return 0 }

func integrate(integ dynamo.Integrator, steps int, dt float64) dynamo.State {
	x := dynamo.State{1, 0}
	for i := 0; i < steps; i++ {
		x = integ.Step(oscillator{}, x, nil, float64(i)*dt, dt)
	}
	return x
}

func TestIntegratorAccuracy(t *testing.T) {
	const (
		dt    = 0.01
		steps = 100
	)
	tests := []struct {
		name  string
		integ dynamo.Integrator
		tol   float64
	}{
		{"rk4", NewRK4(), 1e-4},
		{"euler", NewEuler(), 1e-2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := integrate(tt.integ, steps, dt)
			wantX := math.Cos(steps * dt)
			wantV := -math.Sin(steps * dt)
			if math.Abs(x[0]-wantX) > tt.tol {
				t.Errorf("position error too large: got %.6f, expected %.6f", x[0], wantX)
			}
			if math.Abs(x[1]-wantV) > tt.tol {
				t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], wantV)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
