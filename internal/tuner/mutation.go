package tuner

import "github.com/san-kum/gaintune/internal/control"

// Delta is a perturbation of a gain triple. Unlike Gains it may be negative.
type Delta struct {
	P, I, D float64
}

// Apply adds the delta to g and clamps the result to valid gains.
func (d Delta) Apply(g control.Gains) control.Gains {
	return control.Gains{Kp: g.Kp + d.P, Ki: g.Ki + d.I, Kd: g.Kd + d.D}.Clamp()
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}

// probeTable is the fixed cycle +P, +I, +D, -P, -I, -D.
func probeTable(step control.Gains) [6]Delta {
	return [6]Delta{
		{P: step.Kp},
		{I: step.Ki},
		{D: step.Kd},
		{P: -step.Kp},
		{I: -step.Ki},
		{D: -step.Kd},
	}
}

// mutate draws a fresh delta, stores it for later extrapolation and applies it
// to base.
func (e *Engine) mutate(base control.Gains) control.Gains {
	if e.st.trialsCompleted < e.cfg.ProbeTrials {
		e.st.delta = e.probes[e.st.probeIndex]
		e.st.probeIndex = (e.st.probeIndex + 1) % len(e.probes)
	} else {
		decay := e.st.bestDuration / float64(e.cfg.MaxTicksPerTrial) * e.cfg.DecayFactor
		e.st.delta = Delta{
			P: cubedDraw(e.rng) * e.cfg.MutationScale.Kp * decay,
			I: cubedDraw(e.rng) * e.cfg.MutationScale.Ki * decay,
			D: cubedDraw(e.rng) * e.cfg.MutationScale.Kd * decay,
		}
	}
	return e.st.delta.Apply(base)
}

// cubedDraw is u³ for u uniform in [-0.5, 0.5): mostly tiny, occasionally large.
func cubedDraw(r Rand) float64 {
	u := r.Float64() - 0.5
	return u * u * u
}
