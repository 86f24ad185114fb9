package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pmsmsolve/internal/chart"
	"github.com/san-kum/pmsmsolve/internal/config"
	"github.com/san-kum/pmsmsolve/internal/optim"
	"github.com/san-kum/pmsmsolve/internal/pmsm"
	"github.com/san-kum/pmsmsolve/internal/sweep"
	"github.com/san-kum/pmsmsolve/internal/tui"
	"github.com/san-kum/pmsmsolve/internal/viz"
)

func parseOperatingPoint(args []string) (torque, speed float64, err error) {
	torque, err = strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("torque: %w", err)
	}
	speed, err = strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("speed: %w", err)
	}
	return torque, speed, nil
}

// operatingPointArgs accepts no arguments or a torque and speed pair.
func operatingPointArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("%s needs both torque and speed, got only %q", cmd.Name(), args[0])
	}
	return nil
}

// applyMotorOverrides sets motor parameters from name=value pairs.
func applyMotorOverrides(m *pmsm.MotorParameters, sets []string) error {
	for _, kv := range sets {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("--set %s: %w", name, err)
		}
		if err := m.SetParam(name, v); err != nil {
			return fmt.Errorf("--set: %w (known: %v)", err, slices.Sorted(maps.Keys(m.GetParams())))
		}
	}
	return m.Validate()
}

func newSolveCmd() *cobra.Command {
	var (
		kc     float64
		sets   []string
		asJSON bool
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "solve [torque Nm] [speed rad/s]",
		Short: "solve current references for one operating point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			torque, speed, err := parseOperatingPoint(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cond := cfg.Condition()
			if err := applyMotorOverrides(cond.Motor, sets); err != nil {
				return err
			}
			if cmd.Flags().Changed("kc") {
				cond.KcMTPA = kc
				if err := cond.Validate(); err != nil {
					return err
				}
			}

			sol, status := pmsm.Solve(cond, torque, speed)
			logger.Debug("solved",
				zap.String("op", "pmsm.Solve"),
				zap.Float64("torque", torque),
				zap.Float64("speed", speed),
				zap.Stringer("status", status),
				zap.Int("iterations", sol.Iterations),
				zap.Int("fw_iterations", sol.FWIterations),
			)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(struct {
					Torque   float64       `json:"torque"`
					Speed    float64       `json:"speed"`
					Status   string        `json:"status"`
					Solution pmsm.Solution `json:"solution"`
				}{torque, speed, status.String(), sol}); err != nil {
					return err
				}
			} else {
				fmt.Println(viz.RenderSolution(cond, torque, speed, &sol, status))
			}

			if status != pmsm.StatusOK {
				solveErr := &pmsm.SolveError{Torque: torque, Speed: speed, Status: status}
				logger.Warn("solver did not converge", zap.String("op", "pmsm.Solve"), zap.Error(solveErr))
				if strict {
					return solveErr
				}
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&kc, "kc", 1.0, "override MTPA correction factor")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a motor parameter, e.g. --set ld=0.0012")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the solution as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the solver does not converge")
	return cmd
}

func sweepAxes(cfg *config.Config) (speeds, torques []float64) {
	s := cfg.Sweep
	return sweep.Linspace(s.SpeedMin, s.SpeedMax, s.SpeedSteps),
		sweep.Linspace(s.TorqueMin, s.TorqueMax, s.TorqueSteps)
}

func newSweepCmd() *cobra.Command {
	var (
		row    int
		png    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve a torque-speed grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			speeds, torques := sweepAxes(cfg)

			g, err := sweep.Map(cmd.Context(), cfg.Condition(), speeds, torques)
			if err != nil {
				return err
			}
			failures := g.Failures()
			for _, f := range failures {
				logger.Debug("grid point not converged", zap.String("op", "sweep.Map"), zap.Error(f))
			}
			if len(failures) > 0 {
				logger.Warn("sweep has unconverged points", zap.Int("count", len(failures)))
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(g)
			}

			if row < 0 || row >= len(torques) {
				return fmt.Errorf("row %d out of range [0, %d)", row, len(torques))
			}
			points := g.Row(row)
			id := make([]float64, len(points))
			iq := make([]float64, len(points))
			for i, p := range points {
				id[i], iq[i] = p.Solution.IdRef, p.Solution.IqRef
			}

			fmt.Printf("grid: %d torques x %d speeds, %d in flux weakening, %d not converged\n\n",
				len(torques), len(speeds), g.FluxWeakeningCount(), len(failures))
			fmt.Println(asciigraph.PlotMany([][]float64{id, iq},
				asciigraph.Height(12),
				asciigraph.Width(80),
				asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
				asciigraph.Caption(fmt.Sprintf("id (blue), iq (red) at %.3g Nm, %g..%g rad/s",
					torques[row], speeds[0], speeds[len(speeds)-1])),
			))

			if png != "" {
				if err := chart.SweepCurrents(g, row, png); err != nil {
					return err
				}
				fmt.Printf("\nchart written to %s\n", png)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&row, "row", 0, "torque row to chart")
	cmd.Flags().StringVar(&png, "png", "", "write the row chart to an image file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the whole grid as JSON")
	return cmd
}

func newEnvelopeCmd() *cobra.Command {
	var png string
	cmd := &cobra.Command{
		Use:   "envelope",
		Short: "largest deliverable torque over the speed range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			speeds, _ := sweepAxes(cfg)

			env, err := sweep.Envelope(cmd.Context(), cfg.Condition(), speeds)
			if err != nil {
				return err
			}

			fmt.Println(viz.RenderEnvelope(env))

			torque := make([]float64, len(env))
			for i, p := range env {
				torque[i] = p.MaxTorque
			}
			fmt.Println(asciigraph.Plot(torque,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("max torque [Nm] vs speed"),
			))

			if png != "" {
				if err := chart.Envelope(env, png); err != nil {
					return err
				}
				fmt.Printf("\nchart written to %s\n", png)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&png, "png", "", "write the envelope chart to an image file")
	return cmd
}

func newCalibrateCmd() *cobra.Command {
	var (
		kcMin, kcMax float64
		steps        int
		write        string
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "pick the MTPA correction factor with the fewest solver iterations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			speeds, torques := sweepAxes(cfg)

			points := make([]optim.OperatingPoint, 0, len(speeds)*len(torques))
			for _, t := range torques {
				for _, w := range speeds {
					points = append(points, optim.OperatingPoint{Torque: t, Speed: w})
				}
			}

			cond := cfg.Condition()
			base, baseFailed := optim.IterationCost(cond, points)

			cal, err := optim.CalibrateKc(cmd.Context(), cond, sweep.Linspace(kcMin, kcMax, steps), points)
			if err != nil {
				return err
			}
			logger.Info("calibration finished",
				zap.String("op", "optim.CalibrateKc"),
				zap.Float64("kc", cal.Kc),
				zap.Float64("mean_iterations", cal.MeanIterations),
			)

			fmt.Printf("points:      %d\n", len(points))
			fmt.Printf("current kc:  %.4f  cost %.3f  (%d not converged)\n", cond.KcMTPA, base, baseFailed)
			fmt.Printf("best kc:     %.4f  cost %.3f  (%d not converged)\n", cal.Kc, cal.MeanIterations, cal.NotConverged)

			if write != "" {
				cfg.Solver.KcMTPA = cal.Kc
				if err := config.Save(write, cfg); err != nil {
					return err
				}
				fmt.Printf("config written to %s\n", write)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&kcMin, "min", 0.8, "smallest kc candidate")
	cmd.Flags().Float64Var(&kcMax, "max", 1.2, "largest kc candidate")
	cmd.Flags().IntVar(&steps, "steps", 9, "number of kc candidates")
	cmd.Flags().StringVar(&write, "write", "", "save the config with the calibrated kc to this path")
	return cmd
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [torque Nm] [speed rad/s]",
		Short: "interactive operating-point explorer",
		Args:  cobra.MatchAll(cobra.RangeArgs(0, 2), operatingPointArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			torque, speed := 0.5*cfg.Drive.TorqueLimit, cfg.Drive.SpeedTarget
			if len(args) == 2 {
				if torque, speed, err = parseOperatingPoint(args); err != nil {
					return err
				}
			}
			return tui.Run(cfg.Condition(), torque, speed)
		},
	}
}

