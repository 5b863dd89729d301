package plant

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/san-kum/gaintune/internal/dynamo"
	"github.com/san-kum/gaintune/internal/physics"
	"github.com/san-kum/gaintune/internal/tuner"
)

var ErrNonFiniteOutput = errors.New("plant: non-finite output")

var _ tuner.Tunable = (*Plant)(nil)

// Params describes the trial setup around a model.
type Params struct {
	// Target is the measured value the tuner drives toward.
	Target float64 `yaml:"target" json:"target"`
	// Home is where a reset puts the plant. Odd slots start mirrored about
	// Target so averaged trials approach from both sides.
	Home float64 `yaml:"home" json:"home"`
	// ResetTicks is how many ticks a reset takes to complete.
	ResetTicks int `yaml:"reset_ticks" json:"reset_ticks"`
	// OutputLimit clamps the applied control input.
	OutputLimit float64 `yaml:"output_limit" json:"output_limit"`
	// RandomSpread is the half-width of the start range for robustness trials.
	RandomSpread float64 `yaml:"random_spread" json:"random_spread"`
	// Noise is the standard deviation of measurement noise.
	Noise float64 `yaml:"noise" json:"noise"`
}

func (p Params) Validate() error {
	if p.ResetTicks < 0 {
		return fmt.Errorf("plant: reset ticks must not be negative, got %d", p.ResetTicks)
	}
	if p.OutputLimit <= 0 {
		return fmt.Errorf("plant: output limit must be positive, got %g", p.OutputLimit)
	}
	if p.RandomSpread < 0 || p.Noise < 0 {
		return fmt.Errorf("plant: random spread and noise must not be negative")
	}
	return nil
}

// Plant is a simulated tunable.
type Plant struct {
	name   string
	model  physics.Model
	integ  dynamo.Integrator
	params Params
	dt     float64
	rng    *rand.Rand
	logger *slog.Logger

	x      dynamo.State
	t      float64
	step   int
	u      float64
	resetN int
	random bool
	report tuner.Report
}

type Option func(*Plant)

func WithLogger(l *slog.Logger) Option {
	return func(p *Plant) { p.logger = l }
}

func New(name string, model physics.Model, integ dynamo.Integrator, params Params, dt float64, seed int64, opts ...Option) (*Plant, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("plant: dt must be positive, got %g", dt)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := &Plant{
		name:   name,
		model:  model,
		integ:  integ,
		params: params,
		dt:     dt,
		rng:    rand.New(rand.NewSource(seed)),
		logger: slog.Default(),
		x:      model.InitialState(params.Home),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Plant) Error() float64 {
	v := p.model.Measure(p.x) - p.params.Target
	if p.params.Noise > 0 {
		v += p.rng.NormFloat64() * p.params.Noise
	}
	return v
}

func (p *Plant) ResetFinished() bool {
	return p.resetN == 0
}

// SetValue applies the tuner output. Positive error calls for negative drive.
func (p *Plant) SetValue(output float64) error {
	if math.IsNaN(output) || math.IsInf(output, 0) {
		return fmt.Errorf("%w: %v", ErrNonFiniteOutput, output)
	}
	lim := p.params.OutputLimit
	p.u = math.Max(-lim, math.Min(lim, -output))
	return nil
}

func (p *Plant) StartReset(slot int) error {
	home := p.params.Home
	if slot%2 == 1 {
		home = 2*p.params.Target - home
	}
	p.restart(home)
	p.random = false
	return nil
}

func (p *Plant) SetToRandomState() error {
	home := p.params.Home
	if s := p.params.RandomSpread; s > 0 {
		home = p.params.Target + (p.rng.Float64()*2-1)*s
	}
	p.restart(home)
	p.random = true
	p.logger.Debug("plant randomised", "plant", p.name, "start", home)
	return nil
}

func (p *Plant) restart(at float64) {
	p.x = p.model.InitialState(at)
	p.u = 0
	p.resetN = p.params.ResetTicks
}

func (p *Plant) GiveInfo(r tuner.Report) {
	p.report = r
	p.logger.Debug("trial report",
		"plant", p.name,
		"best", r.Best.String(),
		"best_duration", r.BestDuration,
		"last_duration", r.LastDuration)
}

// Advance moves the simulation one control period. During a reset the plant
// is held still and the reset countdown runs instead.
func (p *Plant) Advance() error {
	p.step++
	if p.resetN > 0 {
		p.resetN--
		return nil
	}
	next := p.integ.Step(p.model, p.x, dynamo.Control{p.u}, p.t, p.dt)
	if !next.IsValid() {
		return &dynamo.SimulationError{Step: p.step, Time: p.t, State: p.x.Clone(), Wrapped: dynamo.ErrInvalidState}
	}
	p.x = next
	p.t += p.dt
	return nil
}

// Status is a copy of the plant state for display.
type Status struct {
	Name      string
	Position  float64
	Target    float64
	Output    float64
	Resetting bool
	Random    bool
	Report    tuner.Report
}

func (p *Plant) Status() Status {
	return Status{
		Name:      p.name,
		Position:  p.model.Measure(p.x),
		Target:    p.params.Target,
		Output:    p.u,
		Resetting: p.resetN > 0,
		Random:    p.random,
		Report:    p.report,
	}
}

func (p *Plant) Name() string { return p.name }

func (p *Plant) Params() Params { return p.params }

func (p *Plant) State() dynamo.State { return p.x.Clone() }
