package control

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidGains indicates a gain triple outside kp ≥ 0, ki ≥ 0, 0 ≤ kd ≤ kp.
var ErrInvalidGains = errors.New("control: invalid gains")

// Gains is a candidate (kp, ki, kd). Values are copied, never mutated in place.
type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Ki float64 `yaml:"ki" json:"ki"`
	Kd float64 `yaml:"kd" json:"kd"`
}

func (g Gains) Validate() error {
	for _, v := range []float64{g.Kp, g.Ki, g.Kd} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite component in %s", ErrInvalidGains, g)
		}
	}
	if g.Kp < 0 || g.Ki < 0 || g.Kd < 0 {
		return fmt.Errorf("%w: negative component in %s", ErrInvalidGains, g)
	}
	if g.Kd > g.Kp {
		return fmt.Errorf("%w: kd %g exceeds kp %g", ErrInvalidGains, g.Kd, g.Kp)
	}
	return nil
}

// Clamp floors kp and ki at zero and bounds kd to [0, kp].
func (g Gains) Clamp() Gains {
	kp := math.Max(g.Kp, 0)
	ki := math.Max(g.Ki, 0)
	kd := math.Min(math.Max(g.Kd, 0), kp)
	return Gains{Kp: kp, Ki: ki, Kd: kd}
}

func (g Gains) String() string {
	return format(g.Kp) + ", " + format(g.Ki) + ", " + format(g.Kd)
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
