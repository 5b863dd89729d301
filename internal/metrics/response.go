package metrics

import "math"

// IAE is the integral of |error| over the trial.
type IAE struct {
	dt  float64
	sum float64
}

func NewIAE(dt float64) *IAE {
	return &IAE{dt: dt}
}

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(err, _ float64) { m.sum += math.Abs(err) * m.dt }

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() { m.sum = 0 }

// Overshoot is the largest excursion past the target, measured against the
// sign of the first non-zero error of the trial.
type Overshoot struct {
	sign float64
	max  float64
}

func NewOvershoot() *Overshoot {
	return &Overshoot{}
}

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(err, _ float64) {
	if m.sign == 0 {
		if err != 0 {
			m.sign = math.Copysign(1, err)
		}
		return
	}
	if past := -m.sign * err; past > m.max {
		m.max = past
	}
}

func (m *Overshoot) Value() float64 { return m.max }

func (m *Overshoot) Reset() {
	m.sign = 0
	m.max = 0
}
