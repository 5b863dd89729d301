package control

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestPIDCalculate(t *testing.T) {
	pid := NewPID(Gains{Kp: 2, Ki: 0.5, Kd: 1})

	// e=3, Σe=3, Δe=3
	if u := pid.Calculate(0, 3); !approx(u, 10.5) {
		t.Errorf("first output = %v, want 10.5", u)
	}
	// e=1, Σe=4, Δe=-2
	if u := pid.Calculate(0, 1); !approx(u, 2) {
		t.Errorf("second output = %v, want 2", u)
	}
}

func TestPIDErrorSign(t *testing.T) {
	pid := NewPID(Gains{Kp: 1})
	if u := pid.Calculate(5, 2); !approx(u, -3) {
		t.Errorf("expected measured-setpoint error of -3, got %v", u)
	}
}

func TestPIDAntiWindup(t *testing.T) {
	tests := []struct {
		name       string
		antiWindup bool
		want       float64
	}{
		{"windup", false, -6},
		{"anti-windup resets on zero crossing", true, -8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid := NewPID(Gains{Kp: 2, Ki: 0.5, Kd: 1})
			pid.AntiWindup = tt.antiWindup
			pid.Calculate(0, 3)
			pid.Calculate(0, 1)
			if u := pid.Calculate(0, -2); !approx(u, tt.want) {
				t.Errorf("output = %v, want %v", u, tt.want)
			}
		})
	}
}

func TestPIDIntegralLimit(t *testing.T) {
	pid := NewPID(Gains{Kp: 2, Ki: 0.5, Kd: 1})
	pid.IntegralLimit = 2.5

	if u := pid.Calculate(0, 3); !approx(u, 10.25) {
		t.Errorf("output = %v, want 10.25", u)
	}
	if got := pid.GetParams()["TotalError"]; got != 2.5 {
		t.Errorf("total error = %v, want clamp at 2.5", got)
	}
}

func TestPIDResetError(t *testing.T) {
	pid := NewPID(Gains{Kp: 1, Ki: 1, Kd: 1})
	pid.Calculate(0, 4)
	pid.ResetError()

	params := pid.GetParams()
	if params["TotalError"] != 0 || params["LastError"] != 0 {
		t.Errorf("accumulators not cleared: %v", params)
	}
	// fresh start: e=1, Σe=1, Δe=1
	if u := pid.Calculate(0, 1); !approx(u, 3) {
		t.Errorf("output after reset = %v, want 3", u)
	}
}

func TestPIDSetGainsKeepsError(t *testing.T) {
	pid := NewPID(Gains{Kp: 1, Ki: 1})
	pid.Calculate(0, 2)
	pid.SetGains(Gains{Kp: 0, Ki: 2})

	if pid.Gains() != (Gains{Ki: 2}) {
		t.Errorf("gains not swapped: %v", pid.Gains())
	}
	// Σe continues from 2 to 3
	if u := pid.Calculate(0, 1); !approx(u, 6) {
		t.Errorf("output = %v, want 6", u)
	}
}
