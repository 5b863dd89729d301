package plant

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gaintune/internal/dynamo"
	"github.com/san-kum/gaintune/internal/integrators"
	"github.com/san-kum/gaintune/internal/physics"
	"github.com/san-kum/gaintune/internal/tuner"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newServo(t *testing.T, params Params) *Plant {
	t.Helper()
	p, err := New("servo", physics.NewServo(), integrators.NewRK4(), params, 0.02, 1, WithLogger(quiet))
	require.NoError(t, err)
	return p
}

func defaults() Params {
	return Params{Target: 90, ResetTicks: 3, OutputLimit: 1, RandomSpread: 20}
}

func TestNewValidates(t *testing.T) {
	_, err := New("servo", physics.NewServo(), integrators.NewEuler(), defaults(), 0, 1)
	assert.Error(t, err)

	bad := defaults()
	bad.OutputLimit = 0
	_, err = New("servo", physics.NewServo(), integrators.NewEuler(), bad, 0.02, 1)
	assert.Error(t, err)
}

func TestResetCountdown(t *testing.T) {
	p := newServo(t, defaults())
	require.NoError(t, p.StartReset(0))

	for i := 0; i < 3; i++ {
		assert.False(t, p.ResetFinished(), "tick %d", i)
		require.NoError(t, p.Advance())
	}
	assert.True(t, p.ResetFinished())
	assert.Equal(t, -90.0, p.Error())
}

func TestOddSlotsStartMirrored(t *testing.T) {
	p := newServo(t, defaults())
	require.NoError(t, p.StartReset(1))
	assert.Equal(t, 180.0, p.Status().Position)
	assert.Equal(t, 90.0, p.Error())

	require.NoError(t, p.StartReset(2))
	assert.Equal(t, 0.0, p.Status().Position)
}

func TestSetValue(t *testing.T) {
	p := newServo(t, defaults())

	require.NoError(t, p.SetValue(5))
	assert.Equal(t, -1.0, p.Status().Output)
	require.NoError(t, p.SetValue(-0.25))
	assert.Equal(t, 0.25, p.Status().Output)

	assert.ErrorIs(t, p.SetValue(math.NaN()), ErrNonFiniteOutput)
}

func TestAdvanceMovesTowardDrive(t *testing.T) {
	params := defaults()
	params.ResetTicks = 0
	p := newServo(t, params)

	require.NoError(t, p.SetValue(-1))
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Advance())
	}
	assert.Greater(t, p.Status().Position, 0.0)
}

func TestRandomState(t *testing.T) {
	p := newServo(t, defaults())
	for i := 0; i < 20; i++ {
		require.NoError(t, p.SetToRandomState())
		s := p.Status()
		assert.True(t, s.Random)
		assert.True(t, s.Resetting)
		assert.InDelta(t, 90, s.Position, 20)
	}
	require.NoError(t, p.StartReset(0))
	assert.False(t, p.Status().Random)
}

func TestGiveInfoKeepsReport(t *testing.T) {
	p := newServo(t, defaults())
	r := tuner.Report{BestDuration: 120, LastDuration: 140}
	p.GiveInfo(r)
	assert.Equal(t, r, p.Status().Report)
}

type blowUp struct{ physics.Model }

func (blowUp) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{math.Inf(1), 0}
}

func TestAdvanceReportsDivergence(t *testing.T) {
	params := defaults()
	params.ResetTicks = 0
	p, err := New("boom", blowUp{physics.NewServo()}, integrators.NewEuler(), params, 0.02, 1, WithLogger(quiet))
	require.NoError(t, err)

	err = p.Advance()
	var se *dynamo.SimulationError
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, dynamo.ErrInvalidState)
	assert.Equal(t, 1, se.Step)
}

func TestTunerImprovesServo(t *testing.T) {
	p := newServo(t, defaults())
	cfg := tuner.DefaultConfig()
	cfg.TrialsPerCandidate = 1
	cfg.Seed = 5
	e, err := tuner.New(p, nil, nil, cfg, tuner.WithLogger(quiet))
	require.NoError(t, err)
	require.NoError(t, e.OnStart())

	for i := 0; i < 200_000 && e.TrialsCompleted() < 12; i++ {
		require.NoError(t, e.Tick())
		require.NoError(t, p.Advance())
	}
	require.Equal(t, 12, e.TrialsCompleted())
	_, best := e.Best()
	assert.Less(t, best, 300.0)
}
