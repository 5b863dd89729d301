// Package metrics measures the closed-loop response of each trial.
package metrics

// Metric accumulates one figure over the ticks of a trial.
type Metric interface {
	Name() string
	Observe(err, output float64)
	Value() float64
	Reset()
}

// Defaults returns the standard trial metrics for control period dt and
// settling tolerance tol.
func Defaults(dt, tol float64) []Metric {
	return []Metric{
		NewIAE(dt),
		NewControlEffort(),
		NewOvershoot(),
		NewStability(tol),
	}
}
