package config

import "sort"

var Presets = map[string]*Config{
	"ipm_small": {
		Name:   "ipm_small",
		Motor:  MotorConfig{Rs: 0.5, Ld: 0.001, Lq: 0.002, PsiA: 0.05, Poles: 4},
		Limits: LimitsConfig{VaLim: 24, IaLim: 10},
		Solver: SolverConfig{KcMTPA: 1},
		Drive: DriveConfig{
			Inertia: 1e-4, Friction: 1e-5, SpeedTarget: 300, Kp: 0.01, Ki: 0.5,
			TorqueLimit: 0.8, Dt: 1e-4, Duration: 0.5, Integrator: "rk4",
		},
		Sweep: SweepConfig{SpeedMax: 1000, SpeedSteps: 21, TorqueMin: 0.1, TorqueMax: 1.0, TorqueSteps: 10},
	},
	"spm_servo": {
		Name:   "spm_servo",
		Motor:  MotorConfig{Rs: 1.2, Ld: 0.0025, Lq: 0.0025, PsiA: 0.03, Poles: 8},
		Limits: LimitsConfig{VaLim: 48, IaLim: 6},
		Solver: SolverConfig{KcMTPA: 1},
		Drive: DriveConfig{
			Inertia: 5e-5, Friction: 2e-6, SpeedTarget: 1200, Kp: 0.002, Ki: 0.05,
			TorqueLimit: 0.6, LoadTorque: 0.1, Dt: 1e-4, Duration: 0.3, Integrator: "rk4",
			RecordEvery: 5,
		},
		Sweep: SweepConfig{SpeedMax: 2500, SpeedSteps: 26, TorqueMin: 0.05, TorqueMax: 0.7, TorqueSteps: 14},
	},
	"ipm_traction": {
		Name:   "ipm_traction",
		Motor:  MotorConfig{Rs: 0.05, Ld: 0.0003, Lq: 0.0009, PsiA: 0.02, Poles: 8},
		Limits: LimitsConfig{VaLim: 48, IaLim: 100},
		Solver: SolverConfig{KcMTPA: 1},
		Drive: DriveConfig{
			Inertia: 2e-3, Friction: 1e-4, SpeedTarget: 800, Kp: 0.05, Ki: 2,
			TorqueLimit: 5, LoadTorque: 1, Dt: 1e-4, Duration: 1, Integrator: "rk4",
			ControlEvery: 2, RecordEvery: 10,
		},
		Sweep: SweepConfig{SpeedMax: 4000, SpeedSteps: 41, TorqueMin: 1, TorqueMax: 10, TorqueSteps: 10},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
