// Package dynamo provides the primitives shared by the simulated plants.
//
// A simulated plant is an ordinary differential equation (dX/dt = f(X, u, t))
// stepped at the control period by an [Integrator]:
//
//   - [State]: state vector of the plant
//   - [System]: the differential equation
//   - [Integrator]: fixed-step numerical integrator
//   - [Configurable]: runtime parameter access
//
// # Example
//
//	dyn := physics.NewServo()
//	integ := integrators.NewRK4()
//	x = integ.Step(dyn, x, dynamo.Control{u}, t, dt)
package dynamo
