package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pmsmsolve/internal/config"
	"github.com/san-kum/pmsmsolve/internal/integrators"
	"github.com/san-kum/pmsmsolve/internal/metrics"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

type Registry struct {
	presets     map[string]func() *config.Config
	integrators map[string]func() sim.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		presets:     make(map[string]func() *config.Config),
		integrators: make(map[string]func() sim.Integrator),
	}

	for _, name := range config.ListPresets() {
		name := name
		r.presets[name] = func() *config.Config { return config.GetPreset(name) }
	}

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetPreset(name string) (*config.Config, error) {
	fn, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, r.ListPresets())
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	if name == "" {
		name = "rk4"
	}
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, r.ListIntegrators())
	}
	return fn(), nil
}

func (r *Registry) ListPresets() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are attached to every drive run.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	return []sim.Metric{
		metrics.NewCurrentAmplitude(),
		metrics.NewPeakCurrent(),
		metrics.NewFluxWeakeningRatio(),
		metrics.NewNotConverged(),
		metrics.NewVoltageHeadroom(cfg.Limits.VaLim),
		metrics.NewSpeedError(cfg.Drive.SpeedTarget, cfg.Motor.Poles),
	}
}
