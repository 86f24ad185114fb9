package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

// Scenario is a scripted list of operating points solved in order.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Preset      string `yaml:"preset"`
	Steps       []Step `yaml:"steps"`
}

// Step is one operating point. KcMTPA, when set, overrides the condition's
// correction factor for this step only.
type Step struct {
	Label  string   `yaml:"label"`
	Torque float64  `yaml:"torque"`
	Speed  float64  `yaml:"speed"`
	KcMTPA *float64 `yaml:"kc_mtpa,omitempty"`
}

type StepResult struct {
	Step     Step          `json:"step"`
	Solution pmsm.Solution `json:"solution"`
	Status   pmsm.Status   `json:"status"`
	Torque   float64       `json:"torque"`
}

// Report collects the results of a scenario. Errors holds a
// *pmsm.SolveError for every step that hit an iteration cap.
type Report struct {
	Name    string       `json:"name"`
	Results []StepResult `json:"results"`
	Errors  []error      `json:"-"`
}

// Err joins all step failures, nil when every step converged.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	for i, st := range sc.Steps {
		if st.KcMTPA != nil && *st.KcMTPA <= 0 {
			return nil, fmt.Errorf("step %d: %w: kc_mtpa must be positive", i+1, pmsm.ErrParameterBounds)
		}
	}
	return &sc, nil
}

// Run solves each step against a copy of cond. Non-convergence does not
// stop the run; it is recorded on the report.
func Run(ctx context.Context, sc *Scenario, cond *pmsm.Condition, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		Name:    sc.Name,
		Results: make([]StepResult, 0, len(sc.Steps)),
	}

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		c := *cond
		if st.KcMTPA != nil {
			c.KcMTPA = *st.KcMTPA
		}

		sol, status := pmsm.Solve(&c, st.Torque, st.Speed)
		report.Results = append(report.Results, StepResult{
			Step:     st,
			Solution: sol,
			Status:   status,
			Torque:   c.Motor.Torque(sol.IdRef, sol.IqRef),
		})

		logger.Debug("scenario step solved",
			zap.Int("step", i+1),
			zap.String("label", st.Label),
			zap.Float64("torque", st.Torque),
			zap.Float64("speed", st.Speed),
			zap.Stringer("status", status),
			zap.Bool("fw", sol.FW),
		)

		if status != pmsm.StatusOK {
			report.Errors = append(report.Errors, &pmsm.SolveError{Torque: st.Torque, Speed: st.Speed, Status: status})
		}
	}

	if len(report.Errors) > 0 {
		logger.Warn("scenario finished with unconverged steps",
			zap.String("scenario", sc.Name),
			zap.Int("failed", len(report.Errors)),
			zap.Int("steps", len(sc.Steps)),
		)
	}
	return report, nil
}
