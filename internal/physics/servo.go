package physics

import "github.com/san-kum/gaintune/internal/dynamo"

// Servo is a velocity-damped positional servo. State is [angle deg, rate deg/s]
// and full input accelerates it at MaxAccel deg/s².
type Servo struct {
	MaxAccel float64
	Damping  float64
	// Friction is a constant drag opposing motion, as a fraction of MaxAccel.
	Friction float64
}

func NewServo() *Servo {
	return &Servo{
		MaxAccel: 720,
		Damping:  4,
		Friction: 0.02,
	}
}

func (s *Servo) StateDim() int   { return 2 }
func (s *Servo) ControlDim() int { return 1 }

func (s *Servo) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	omega := x[1]
	accel := s.MaxAccel*input(u) - s.Damping*omega
	switch {
	case omega > 0:
		accel -= s.Friction * s.MaxAccel
	case omega < 0:
		accel += s.Friction * s.MaxAccel
	}
	return dynamo.State{omega, accel}
}

func (s *Servo) Measure(x dynamo.State) float64 { return x[0] }

func (s *Servo) InitialState(at float64) dynamo.State {
	return dynamo.State{at, 0}
}

func (s *Servo) GetParams() map[string]float64 {
	return map[string]float64{
		"max_accel": s.MaxAccel,
		"damping":   s.Damping,
		"friction":  s.Friction,
	}
}

func (s *Servo) SetParam(name string, value float64) error {
	switch name {
	case "max_accel":
		if err := positive(name, value); err != nil {
			return err
		}
		s.MaxAccel = value
	case "damping":
		s.Damping = value
	case "friction":
		s.Friction = value
	default:
		return unknown(name)
	}
	return nil
}
