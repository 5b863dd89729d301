package control

// PID is the discrete law output = kp*e + ki*Σe + kd*(e - e_prev), with
// e = measured - setpoint. There is no dt term: one call is one tick.
type PID struct {
	gains Gains

	// AntiWindup clears the accumulated error whenever the error changes sign.
	AntiWindup bool
	// IntegralLimit bounds |Σe| when positive.
	IntegralLimit float64

	totalError float64
	lastError  float64
}

func NewPID(g Gains) *PID {
	return &PID{gains: g}
}

func (p *PID) Calculate(setpoint, measured float64) float64 {
	err := measured - setpoint

	if p.AntiWindup && ((err > 0 && p.lastError < 0) || (err < 0 && p.lastError > 0)) {
		p.totalError = 0
	}
	p.totalError += err
	if p.IntegralLimit > 0 {
		if p.totalError > p.IntegralLimit {
			p.totalError = p.IntegralLimit
		} else if p.totalError < -p.IntegralLimit {
			p.totalError = -p.IntegralLimit
		}
	}

	out := p.gains.Kp*err + p.gains.Ki*p.totalError + p.gains.Kd*(err-p.lastError)
	p.lastError = err
	return out
}

// ResetError clears integral and derivative memory. Gains are kept.
func (p *PID) ResetError() {
	p.totalError = 0
	p.lastError = 0
}

// SetGains swaps the gains without touching accumulated error.
func (p *PID) SetGains(g Gains) {
	p.gains = g
}

func (p *PID) Gains() Gains {
	return p.gains
}

// GetParams returns the gains and accumulator state for telemetry.
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":         p.gains.Kp,
		"Ki":         p.gains.Ki,
		"Kd":         p.gains.Kd,
		"TotalError": p.totalError,
		"LastError":  p.lastError,
	}
}
