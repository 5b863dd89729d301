package physics

import (
	"math"

	"github.com/san-kum/gaintune/internal/dynamo"
)

// Pendulum is an arm driven by a torque motor and held up against gravity.
// State is [theta rad, omega rad/s], theta 0 hanging straight down.
type Pendulum struct {
	Mass      float64
	Length    float64
	Damping   float64
	Gravity   float64
	MaxTorque float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:      1.0,
		Length:    1.0,
		Damping:   0.5,
		Gravity:   9.81,
		MaxTorque: 20,
	}
}

func (p *Pendulum) StateDim() int {
	return 2
}

func (p *Pendulum) ControlDim() int {
	return 1
}

func (p *Pendulum) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta := x[0]
	omega := x[1]

	torque := p.MaxTorque * input(u)
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) / (p.Mass * p.Length * p.Length)

	return dynamo.State{omega, alpha}
}

func (p *Pendulum) Measure(x dynamo.State) float64 {
	return x[0] * 180 / math.Pi
}

func (p *Pendulum) InitialState(at float64) dynamo.State {
	return dynamo.State{at * math.Pi / 180, 0}
}

// HoldingTorque is the torque needed to keep the arm still at theta.
func (p *Pendulum) HoldingTorque(theta float64) float64 {
	return p.Mass * p.Gravity * p.Length * math.Sin(theta)
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       p.Mass,
		"length":     p.Length,
		"damping":    p.Damping,
		"gravity":    p.Gravity,
		"max_torque": p.MaxTorque,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass", "length", "max_torque":
		if err := positive(name, value); err != nil {
			return err
		}
	}
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	case "max_torque":
		p.MaxTorque = value
	default:
		return unknown(name)
	}
	return nil
}
