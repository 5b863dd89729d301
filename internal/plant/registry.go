package plant

import (
	"fmt"
	"sort"

	"github.com/san-kum/gaintune/internal/physics"
)

// Entry is a named model with the trial setup that suits it.
type Entry struct {
	Description string
	New         func() physics.Model
	Defaults    Params
}

type Registry struct {
	entries map[string]Entry
}

func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry)}

	r.entries["servo"] = Entry{
		Description: "position servo turning to an angle (deg)",
		New:         func() physics.Model { return physics.NewServo() },
		Defaults:    Params{Target: 90, ResetTicks: 25, OutputLimit: 1, RandomSpread: 60},
	}
	r.entries["pendulum"] = Entry{
		Description: "arm lifted and held against gravity (deg)",
		New:         func() physics.Model { return physics.NewPendulum() },
		Defaults:    Params{Target: 90, ResetTicks: 25, OutputLimit: 1, RandomSpread: 45},
	}
	r.entries["spring_mass"] = Entry{
		Description: "mass on a spring pushed to a position (cm)",
		New:         func() physics.Model { return physics.NewSpringMass() },
		Defaults:    Params{Target: 50, ResetTicks: 25, OutputLimit: 1, RandomSpread: 30},
	}

	return r
}

func (r *Registry) Get(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("unknown plant: %s (available: %v)", name, r.List())
	}
	return e, nil
}

// Model builds the named model and applies parameter overrides.
func (r *Registry) Model(name string, params map[string]float64) (physics.Model, error) {
	e, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	m := e.New()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.SetParam(k, params[k]); err != nil {
			return nil, fmt.Errorf("plant %s: %w", name, err)
		}
	}
	return m, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
