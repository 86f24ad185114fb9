package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

const (
	DefaultRs    = 0.5
	DefaultLd    = 0.001
	DefaultLq    = 0.002
	DefaultPsiA  = 0.05
	DefaultPoles = 4.0
	DefaultVaLim = 24.0
	DefaultIaLim = 10.0
	DefaultKc    = 1.0

	DefaultDt       = 1e-4
	DefaultDuration = 0.5
	DefaultInertia  = 1e-4
	DefaultFriction = 1e-5
	DefaultKp       = 0.01
	DefaultKi       = 0.5
)

// EnvPrefix is prepended to upper-cased keys for environment overrides,
// e.g. PMSM_LIMITS_VA_LIM.
const EnvPrefix = "PMSM"

type Config struct {
	Name   string       `yaml:"name" mapstructure:"name"`
	Motor  MotorConfig  `yaml:"motor" mapstructure:"motor"`
	Limits LimitsConfig `yaml:"limits" mapstructure:"limits"`
	Solver SolverConfig `yaml:"solver" mapstructure:"solver"`
	Drive  DriveConfig  `yaml:"drive" mapstructure:"drive"`
	Sweep  SweepConfig  `yaml:"sweep" mapstructure:"sweep"`
}

type MotorConfig struct {
	Rs    float64 `yaml:"rs" mapstructure:"rs"`
	Ld    float64 `yaml:"ld" mapstructure:"ld"`
	Lq    float64 `yaml:"lq" mapstructure:"lq"`
	PsiA  float64 `yaml:"psi_a" mapstructure:"psi_a"`
	Poles float64 `yaml:"poles" mapstructure:"poles"`
}

type LimitsConfig struct {
	VaLim float64 `yaml:"va_lim" mapstructure:"va_lim"`
	IaLim float64 `yaml:"ia_lim" mapstructure:"ia_lim"`
}

type SolverConfig struct {
	KcMTPA float64 `yaml:"kc_mtpa" mapstructure:"kc_mtpa"`
}

type DriveConfig struct {
	Inertia     float64 `yaml:"inertia" mapstructure:"inertia"`
	Friction    float64 `yaml:"friction" mapstructure:"friction"`
	LoadTorque  float64 `yaml:"load_torque" mapstructure:"load_torque"`
	SpeedTarget float64 `yaml:"speed_target" mapstructure:"speed_target"`
	Kp          float64 `yaml:"kp" mapstructure:"kp"`
	Ki          float64 `yaml:"ki" mapstructure:"ki"`
	TorqueLimit float64 `yaml:"torque_limit" mapstructure:"torque_limit"`
	Dt          float64 `yaml:"dt" mapstructure:"dt"`
	Duration    float64 `yaml:"duration" mapstructure:"duration"`
	Integrator  string  `yaml:"integrator" mapstructure:"integrator"`

	// ControlEvery is the number of dt steps between solver calls.
	ControlEvery int `yaml:"control_every" mapstructure:"control_every"`
	RecordEvery  int `yaml:"record_every" mapstructure:"record_every"`
}

type SweepConfig struct {
	SpeedMin    float64 `yaml:"speed_min" mapstructure:"speed_min"`
	SpeedMax    float64 `yaml:"speed_max" mapstructure:"speed_max"`
	SpeedSteps  int     `yaml:"speed_steps" mapstructure:"speed_steps"`
	TorqueMin   float64 `yaml:"torque_min" mapstructure:"torque_min"`
	TorqueMax   float64 `yaml:"torque_max" mapstructure:"torque_max"`
	TorqueSteps int     `yaml:"torque_steps" mapstructure:"torque_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Motor: MotorConfig{
			Rs:    DefaultRs,
			Ld:    DefaultLd,
			Lq:    DefaultLq,
			PsiA:  DefaultPsiA,
			Poles: DefaultPoles,
		},
		Limits: LimitsConfig{
			VaLim: DefaultVaLim,
			IaLim: DefaultIaLim,
		},
		Solver: SolverConfig{
			KcMTPA: DefaultKc,
		},
		Drive: DriveConfig{
			Inertia:     DefaultInertia,
			Friction:    DefaultFriction,
			SpeedTarget: 300,
			Kp:          DefaultKp,
			Ki:          DefaultKi,
			TorqueLimit: 0.8,
			Dt:          DefaultDt,
			Duration:    DefaultDuration,
			Integrator:  "rk4",

			ControlEvery: 1,
			RecordEvery:  1,
		},
		Sweep: SweepConfig{
			SpeedMin:    0,
			SpeedMax:    1000,
			SpeedSteps:  21,
			TorqueMin:   0.1,
			TorqueMax:   1.0,
			TorqueSteps: 10,
		},
	}
}

// Load reads a yaml config on top of DefaultConfig. Keys present in the
// file can be overridden from the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) MotorParameters() *pmsm.MotorParameters {
	return pmsm.NewMotorParameters(c.Motor.Rs, c.Motor.Ld, c.Motor.Lq, c.Motor.PsiA, c.Motor.Poles)
}

// Condition builds a solver condition bound to a fresh MotorParameters.
func (c *Config) Condition() *pmsm.Condition {
	cond := pmsm.NewCondition(c.MotorParameters(), c.Limits.VaLim, c.Limits.IaLim)
	if c.Solver.KcMTPA != 0 {
		cond.KcMTPA = c.Solver.KcMTPA
	}
	return cond
}

func (c *Config) Validate() error {
	if err := c.Condition().Validate(); err != nil {
		return err
	}
	if c.Drive.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Drive.Dt)
	}
	if c.Drive.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Drive.Duration)
	}
	if c.Drive.Inertia <= 0 {
		return fmt.Errorf("inertia must be positive, got %f", c.Drive.Inertia)
	}
	if c.Drive.ControlEvery < 0 || c.Drive.RecordEvery < 0 {
		return fmt.Errorf("control_every and record_every must not be negative")
	}
	return c.Sweep.Validate()
}

// Validate rejects empty or inverted sweep axes.
func (s SweepConfig) Validate() error {
	if s.SpeedSteps < 1 || s.TorqueSteps < 1 {
		return fmt.Errorf("sweep needs at least one speed and one torque, got %d x %d", s.SpeedSteps, s.TorqueSteps)
	}
	if s.SpeedMin > s.SpeedMax {
		return fmt.Errorf("sweep speed_min %g above speed_max %g", s.SpeedMin, s.SpeedMax)
	}
	if s.TorqueMin > s.TorqueMax {
		return fmt.Errorf("sweep torque_min %g above torque_max %g", s.TorqueMin, s.TorqueMax)
	}
	return nil
}
