package scenario

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

// MonteCarloConfig perturbs the motor parameters by up to +/-Perturbation
// (relative) and reruns a scenario for each trial.
type MonteCarloConfig struct {
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// perturbedParams are jittered in this order, so a seed fixes every trial.
var perturbedParams = []string{"rs", "ld", "lq", "psi_a"}

// MonteCarloResult counts step outcomes for one trial. A step in flux
// weakening is counted in FluxWeakening and in OK or NotConverged.
type MonteCarloResult struct {
	TrialID       int                  `json:"trial"`
	Motor         pmsm.MotorParameters `json:"motor"`
	OK            int                  `json:"ok"`
	FluxWeakening int                  `json:"flux_weakening"`
	NotConverged  int                  `json:"not_converged"`
	Limited       int                  `json:"current_limited"`
}

// RunMonteCarlo checks how robust a scenario is against parameter drift.
func RunMonteCarlo(ctx context.Context, sc *Scenario, cond *pmsm.Condition, cfg MonteCarloConfig, logger *zap.Logger) ([]MonteCarloResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		motor := *cond.Motor
		nominal := motor.GetParams()
		for _, name := range perturbedParams {
			scale := 1 + (rng.Float64()-0.5)*2*cfg.Perturbation
			if err := motor.SetParam(name, nominal[name]*scale); err != nil {
				return results, err
			}
		}

		c := *cond
		c.Motor = &motor

		report, err := Run(ctx, sc, &c, zap.NewNop())
		if err != nil {
			return results, err
		}

		r := MonteCarloResult{TrialID: trial, Motor: motor, NotConverged: len(report.Errors)}
		for _, res := range report.Results {
			if res.Status == pmsm.StatusOK {
				r.OK++
			}
			if res.Solution.FW {
				r.FluxWeakening++
			}
			if res.Solution.CurrentLimited {
				r.Limited++
			}
		}
		results = append(results, r)

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo progress", zap.Int("done", trial+1), zap.Int("trials", cfg.NumTrials))
		}
	}

	return results, nil
}

// MonteCarloStats counts trials where every step converged.
func MonteCarloStats(results []MonteCarloResult) (clean int, failing int) {
	for _, r := range results {
		if r.NotConverged == 0 {
			clean++
		} else {
			failing++
		}
	}
	return
}
