package tuner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/gaintune/internal/control"
)

// ParseOverride parses "kp,ki,kd". Whitespace anywhere is ignored.
func ParseOverride(text string) (control.Gains, error) {
	fields := strings.Split(strings.Join(strings.Fields(text), ""), ",")
	if len(fields) != 3 {
		return control.Gains{}, fmt.Errorf("%w: want 3 comma-separated values, got %d", ErrMalformedOverride, len(fields))
	}

	var v [3]float64
	for i, f := range fields {
		if f == "" {
			return control.Gains{}, fmt.Errorf("%w: field %d is empty", ErrMalformedOverride, i+1)
		}
		x, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return control.Gains{}, fmt.Errorf("%w: field %d %q is not a number", ErrMalformedOverride, i+1, f)
		}
		v[i] = x
	}

	// Overrides run as given; they never become the tested or best gains.
	return control.Gains{Kp: v[0], Ki: v[1], Kd: v[2]}, nil
}

// SubmitOverride queues gains for a single trial, replacing any queued ones.
func (e *Engine) SubmitOverride(text string) error {
	g, err := ParseOverride(text)
	if err != nil {
		e.logger.Warn("override rejected", "input", text, "error", err)
		return err
	}
	e.st.pendingOverride = &g
	e.logger.Info("override queued", "gains", g.String())
	return nil
}

func (e *Engine) pollOverride() {
	if e.override == nil {
		return
	}
	text := e.override.Read()
	if strings.TrimSpace(text) == "" || text == e.st.overrideError {
		return
	}
	if err := e.SubmitOverride(text); err != nil {
		e.st.overrideError = overrideMessage(err)
		e.override.Write(e.st.overrideError)
		return
	}
	e.st.overrideError = ""
	e.override.Write("")
}

func overrideMessage(err error) string {
	return "invalid values: " + strings.TrimPrefix(err.Error(), ErrMalformedOverride.Error()+": ")
}
