package physics

import "github.com/san-kum/gaintune/internal/dynamo"

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 2.0
)

// SpringMass is a chain of masses between two walls with the drive force on
// the first mass. The measured output is the last mass, in centimetres.
// State is [positions..., velocities...] in metres.
type SpringMass struct {
	NumMasses int
	Masses    []float64
	Stiffness []float64
	Damping   []float64
	MaxForce  float64
}

func NewSpringMass() *SpringMass {
	return NewSpringMassChain(1)
}

func NewSpringMassChain(n int) *SpringMass {
	masses := make([]float64, n)
	stiffness := make([]float64, n+1)
	damping := make([]float64, n)

	for i := 0; i < n; i++ {
		masses[i] = DefaultMass
		stiffness[i] = DefaultStiffness
		damping[i] = DefaultDamping
	}
	stiffness[n] = DefaultStiffness

	return &SpringMass{
		NumMasses: n,
		Masses:    masses,
		Stiffness: stiffness,
		Damping:   damping,
		MaxForce:  40,
	}
}

func (s *SpringMass) StateDim() int   { return s.NumMasses * 2 }
func (s *SpringMass) ControlDim() int { return 1 }

func (s *SpringMass) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	n := s.NumMasses
	dx := make(dynamo.State, n*2)
	copy(dx[:n], x[n:])

	for i := 0; i < n; i++ {
		pos, vel := x[i], x[n+i]

		left := 0.0
		if i > 0 {
			left = x[i-1]
		}
		right := 0.0
		if i < n-1 {
			right = x[i+1]
		}

		force := -s.Stiffness[i]*(pos-left) - s.Stiffness[i+1]*(pos-right) - s.Damping[i]*vel
		if i == 0 {
			force += s.MaxForce * input(u)
		}
		dx[n+i] = force / s.Masses[i]
	}

	return dx
}

func (s *SpringMass) Measure(x dynamo.State) float64 {
	return x[s.NumMasses-1] * 100
}

// InitialState places every mass at rest at the given output position.
func (s *SpringMass) InitialState(at float64) dynamo.State {
	x := make(dynamo.State, s.StateDim())
	for i := 0; i < s.NumMasses; i++ {
		x[i] = at / 100
	}
	return x
}

func (s *SpringMass) GetParams() map[string]float64 {
	return map[string]float64{
		"masses":    float64(s.NumMasses),
		"mass":      s.Masses[0],
		"stiffness": s.Stiffness[0],
		"damping":   s.Damping[0],
		"max_force": s.MaxForce,
	}
}

// SetParam applies mass, stiffness and damping uniformly along the chain.
func (s *SpringMass) SetParam(name string, value float64) error {
	switch name {
	case "mass", "stiffness", "max_force":
		if err := positive(name, value); err != nil {
			return err
		}
	}
	switch name {
	case "masses":
		n := int(value)
		if n < 1 {
			return positive(name, value)
		}
		chain := NewSpringMassChain(n)
		chain.MaxForce = s.MaxForce
		for i := range chain.Masses {
			chain.Masses[i] = s.Masses[0]
			chain.Damping[i] = s.Damping[0]
		}
		for i := range chain.Stiffness {
			chain.Stiffness[i] = s.Stiffness[0]
		}
		*s = *chain
	case "mass":
		fill(s.Masses, value)
	case "stiffness":
		fill(s.Stiffness, value)
	case "damping":
		fill(s.Damping, value)
	case "max_force":
		s.MaxForce = value
	default:
		return unknown(name)
	}
	return nil
}

func fill(xs []float64, v float64) {
	for i := range xs {
		xs[i] = v
	}
}
