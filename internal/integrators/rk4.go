package integrators

import "github.com/san-kum/gaintune/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta step. The stage buffers are
// reused between steps, so an RK4 must not be shared between plants.
type RK4 struct {
	k     [4]dynamo.State
	probe dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.probe) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.probe = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.ensureScratch(len(x))

	copy(r.k[0], dyn.Derive(x, u, t))

	axpy(r.probe, x, dt/2, r.k[0])
	copy(r.k[1], dyn.Derive(r.probe, u, t+dt/2))

	axpy(r.probe, x, dt/2, r.k[1])
	copy(r.k[2], dyn.Derive(r.probe, u, t+dt/2))

	axpy(r.probe, x, dt, r.k[2])
	copy(r.k[3], dyn.Derive(r.probe, u, t+dt))

	result := make(dynamo.State, len(x))
	dt6 := dt / 6
	for i := range x {
		result[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return result
}

// axpy writes x + a*y into dst.
func axpy(dst, x dynamo.State, a float64, y dynamo.State) {
	for i := range x {
		dst[i] = x[i] + a*y[i]
	}
}
