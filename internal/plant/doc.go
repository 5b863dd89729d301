// Package plant provides simulated tunables: a physics model stepped by an
// integrator once per control period, exposed to the tuner through
// [tuner.Tunable].
//
// A Plant is driven from a single goroutine. The tuner calls the Tunable
// methods during its tick and the driver calls [Plant.Advance] after it.
package plant
