// Package tuner implements an evolutionary PID-gain tuner.
//
// The [Engine] is driven by one [Engine.Tick] per control period. Each tick it
// either feeds the PID output for the candidate under trial to a [Tunable], or,
// when the trial settles or times out, scores the candidate by its settling
// time in ticks and proposes the next one:
//
//   - the first trials probe one axis at a time with fixed steps
//   - later trials apply cubed, decaying random mutations
//   - an improvement is pushed further along the same delta
//
// Each candidate is run several times and scored by its mean duration. An
// operator can queue a one-shot candidate through an [OverrideChannel].
//
// # Usage
//
//	eng, _ := tuner.New(plant, sink, history, tuner.DefaultConfig())
//	_ = eng.OnStart()
//	for !eng.Done() {
//	    if err := eng.Tick(); err != nil { ... }
//	}
//	_ = eng.OnStop()
//
// # Thread Safety
//
// Engine is NOT safe for concurrent use. Tick must be called from a single
// goroutine, once per period.
package tuner
