// Package physics provides the dynamics behind the simulated plants.
//
// Each model implements [dynamo.System] with a single control input in
// [-1, 1] and [dynamo.Configurable] for presets. [Measured] maps the state to
// the quantity the tuner regulates, in the units the plant's target uses:
//
//   - [Servo]: position servo, degrees
//   - [Pendulum]: arm lifted against gravity, degrees
//   - [SpringMass]: mass on a spring chain, centimetres
package physics
