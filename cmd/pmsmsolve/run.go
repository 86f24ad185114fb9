package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pmsmsolve/internal/chart"
	"github.com/san-kum/pmsmsolve/internal/drive"
	"github.com/san-kum/pmsmsolve/internal/experiment"
	"github.com/san-kum/pmsmsolve/internal/storage"
	"github.com/san-kum/pmsmsolve/internal/tui"
	"github.com/san-kum/pmsmsolve/internal/viz"
)

func newRunCmd() *cobra.Command {
	var (
		target, load, duration float64
		integrator             string
		live                   bool
		fps                    int
		noSave                 bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the speed-controlled drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("target") {
				cfg.Drive.SpeedTarget = target
			}
			if flags.Changed("load") {
				cfg.Drive.LoadTorque = load
			}
			if flags.Changed("time") {
				cfg.Drive.Duration = duration
			}
			if flags.Changed("integrator") {
				cfg.Drive.Integrator = integrator
			}

			exp := experiment.New(cfg, logger)
			if err := exp.Setup(experiment.NewRegistry()); err != nil {
				return err
			}

			if live {
				r := tui.NewLiveRenderer(os.Stdout, cfg.Name, cfg.Motor.Poles, cfg.Drive.SpeedTarget, fps)
				exp.GetSimulator().AddObserver(r)
				r.Start()
				defer r.Stop()
			}

			result, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				logger.Error("run stopped early", zap.String("op", "sim.Run"), zap.Error(e))
			}

			speed := make([]float64, len(result.States))
			for i, x := range result.States {
				speed[i] = drive.ElectricalSpeed(cfg.Motor.Poles, x)
			}
			fmt.Println(asciigraph.Plot(speed,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("electrical speed [rad/s], target %.1f", cfg.Drive.SpeedTarget)),
			))
			fmt.Println()
			fmt.Println(viz.RenderMetrics(result.Metrics))

			if noSave {
				return nil
			}
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}
			runID, err := st.Save(cfg, result)
			if err != nil {
				return err
			}
			fmt.Printf("\nsaved: %s\n", runID)
			return nil
		},
	}
	cmd.Flags().Float64Var(&target, "target", 0, "electrical speed target [rad/s]")
	cmd.Flags().Float64Var(&load, "load", 0, "load torque [Nm]")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration [s]")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4",
		fmt.Sprintf("integrator (%s)", strings.Join(experiment.NewRegistry().ListIntegrators(), ", ")))
	cmd.Flags().BoolVar(&live, "live", false, "redraw the run while it is simulated")
	cmd.Flags().IntVar(&fps, "fps", 20, "frame rate for --live")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tTARGET\tLOAD\tFW\tNOT CONV")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.1f\t%.3f\t%.2f\t%.0f\n",
					run.ID,
					run.Preset,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Duration,
					run.SpeedTarget,
					run.LoadTorque,
					run.Metrics["fw_ratio"],
					run.Metrics["not_converged"],
				)
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	var png string
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, result, err := st.LoadResult(args[0])
			if err != nil {
				return err
			}
			if len(result.Controls) == 0 {
				return fmt.Errorf("no data to plot")
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("preset: %s\n", meta.Preset)
			fmt.Printf("samples: %d\n\n", len(result.States))

			columns := []int{drive.UTorqueRef, drive.UId, drive.UIq, drive.UVa}
			series := make(map[string][]float64, len(columns)+1)

			speed := make([]float64, len(result.States))
			for i, x := range result.States {
				speed[i] = drive.ElectricalSpeed(meta.Motor.Poles, x)
			}
			series["speed"] = speed

			for _, c := range columns {
				data := make([]float64, len(result.Controls))
				for i, u := range result.Controls {
					data[i] = u[c]
				}
				series[drive.ControlNames[c]] = data
			}

			for _, name := range append([]string{"speed"}, controlNames(columns)...) {
				fmt.Println(asciigraph.Plot(series[name],
					asciigraph.Height(8),
					asciigraph.Width(80),
					asciigraph.Caption(name),
				))
				fmt.Println()
			}

			if png != "" {
				delete(series, "speed")
				if err := chart.TimeSeries(meta.ID, result.Times, series, png); err != nil {
					return err
				}
				fmt.Printf("chart written to %s\n", png)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&png, "png", "", "write current and voltage traces to an image file")
	return cmd
}

func controlNames(idx []int) []string {
	names := make([]string, len(idx))
	for i, c := range idx {
		names[i] = drive.ControlNames[c]
	}
	return names
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := storage.New(dataDir).Load(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}
}

func newExportJSONCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export full run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := storage.New(dataDir).LoadResult(args[0])
			if err != nil {
				return err
			}
			if out != "" {
				return storage.ExportJSON(out, meta.Config(), result)
			}
			return storage.WriteJSON(os.Stdout, meta.Config(), result)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}
