// Package control provides the PID law used by the gain tuner.
//
//   - [Gains]: an immutable (kp, ki, kd) triple with the tuning invariant
//     kp ≥ 0, ki ≥ 0, 0 ≤ kd ≤ kp
//   - [PID]: the discrete control law; one call per control period
//
// # Usage
//
//	pid := control.NewPID(control.Gains{Kp: 0.01, Ki: 0.0005})
//	out := pid.Calculate(0, measuredError)
//	// at the start of every trial
//	pid.ResetError()
//
// [PID] is not safe for concurrent use.
package control
