package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pmsmsolve/internal/canbus"
	"github.com/san-kum/pmsmsolve/internal/config"
	"github.com/san-kum/pmsmsolve/internal/experiment"
	"github.com/san-kum/pmsmsolve/internal/pmsm"
	"github.com/san-kum/pmsmsolve/internal/scenario"
)

func newScenarioCmd() *cobra.Command {
	var (
		trials  int
		perturb float64
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "solve a scripted list of operating points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			cfg, err := scenarioConfig(sc)
			if err != nil {
				return err
			}
			cond := cfg.Condition()

			report, err := scenario.Run(cmd.Context(), sc, cond, logger)
			if err != nil {
				return err
			}

			fmt.Printf("scenario: %s (%s)\n\n", sc.Name, cfg.Name)
			fmt.Printf("%-4s %-12s %9s %9s %9s %9s %8s  %-6s %s\n", "#", "label", "torque", "speed", "id", "iq", "va", "mode", "status")
			for i, r := range report.Results {
				mode := r.Solution.Mode.String()
				if r.Solution.FW {
					mode += "+fw"
				}
				fmt.Printf("%-4d %-12s %9.4f %9.1f %9.4f %9.4f %8.3f  %-6s %s\n",
					i+1, r.Step.Label, r.Step.Torque, r.Step.Speed,
					r.Solution.IdRef, r.Solution.IqRef, r.Solution.VaCalc, mode, r.Status)
			}

			if trials > 0 {
				mc, err := scenario.RunMonteCarlo(cmd.Context(), sc, cond, scenario.MonteCarloConfig{
					Perturbation: perturb,
					NumTrials:    trials,
					Seed:         seed,
				}, logger)
				if err != nil {
					return err
				}
				clean, failing := scenario.MonteCarloStats(mc)
				fmt.Printf("\nmonte carlo (±%.0f%%): %d clean, %d with unconverged steps\n", 100*perturb, clean, failing)
				fmt.Printf("%-6s %6s %6s %6s %8s\n", "trial", "ok", "fw", "nc", "limited")
				for _, r := range mc {
					fmt.Printf("%-6d %6d %6d %6d %8d\n", r.TrialID, r.OK, r.FluxWeakening, r.NotConverged, r.Limited)
				}
			}

			return report.Err()
		},
	}
	cmd.Flags().IntVar(&trials, "trials", 0, "monte carlo trials with perturbed motor parameters")
	cmd.Flags().Float64Var(&perturb, "perturb", 0.05, "relative parameter perturbation")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	return cmd
}

// scenarioConfig lets --config and --preset override the preset named in
// the scenario file.
func scenarioConfig(sc *scenario.Scenario) (*config.Config, error) {
	if configFile == "" && preset == "" && sc.Preset != "" {
		cfg, err := experiment.NewRegistry().GetPreset(sc.Preset)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		return cfg, nil
	}
	return loadConfig()
}

func newCANSendCmd() *cobra.Command {
	var (
		iface  string
		id     string
		period time.Duration
		count  int
		dry    bool
	)
	cmd := &cobra.Command{
		Use:   "can-send [torque Nm] [speed rad/s]",
		Short: "send current references for one operating point over SocketCAN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			torque, speed, err := parseOperatingPoint(args)
			if err != nil {
				return err
			}
			if period <= 0 || count < 1 {
				return fmt.Errorf("period and count must be positive")
			}
			frameID, err := strconv.ParseUint(id, 0, 32)
			if err != nil {
				return fmt.Errorf("frame id: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var w canbus.Writer
			mem := &canbus.MemoryWriter{}
			if dry {
				w = mem
			} else {
				dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				if w, err = canbus.NewSocketCANWriter(dialCtx, iface); err != nil {
					return err
				}
			}

			sender := canbus.NewSender(w, uint32(frameID), logger)
			defer sender.Close()

			sol, status := pmsm.Solve(cfg.Condition(), torque, speed)
			if status != pmsm.StatusOK {
				logger.Warn("sending unconverged solution",
					zap.String("op", "canbus.Sender.Send"),
					zap.Error(&pmsm.SolveError{Torque: torque, Speed: speed, Status: status}),
				)
			}

			ticker := time.NewTicker(period)
			defer ticker.Stop()
			for i := 0; i < count; i++ {
				if err := sender.Send(ctx, &sol, status); err != nil {
					return err
				}
				if i == count-1 {
					break
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}

			if dry {
				for _, f := range mem.Frames() {
					fmt.Println(f.String())
				}
			} else {
				fmt.Printf("sent %d frames to %s\n", count, iface)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&iface, "iface", "vcan0", "SocketCAN interface")
	cmd.Flags().StringVar(&id, "id", fmt.Sprintf("0x%X", canbus.DefaultFrameID), "frame id")
	cmd.Flags().DurationVar(&period, "period", 10*time.Millisecond, "interval between frames")
	cmd.Flags().IntVar(&count, "count", 1, "number of frames to send")
	cmd.Flags().BoolVar(&dry, "dry-run", false, "print frames instead of sending them")
	return cmd
}
