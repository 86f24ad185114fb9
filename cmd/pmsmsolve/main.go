package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/pmsmsolve/internal/config"
	"github.com/san-kum/pmsmsolve/internal/experiment"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pmsmsolve",
		Short: "pmsm current-reference solver and drive lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = newLogger(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pmsmsolve", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newSolveCmd(),
		newSweepCmd(),
		newEnvelopeCmd(),
		newCalibrateCmd(),
		newRunCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newExportJSONCmd(),
		newPresetsCmd(),
		newScenarioCmd(),
		newTUICmd(),
		newCANSendCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newLogger writes console logs to stderr, at debug level with --verbose
// and warn level otherwise so command output stays readable.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

// loadConfig resolves --config, then --preset, then the built-in default.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
	case preset != "":
		cfg, err = experiment.NewRegistry().GetPreset(preset)
	default:
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfg.Name, err)
	}
	logger.Debug("config loaded",
		zap.String("name", cfg.Name),
		zap.String("file", configFile),
		zap.String("preset", preset),
	)
	return cfg, nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := experiment.NewRegistry()
			fmt.Println("presets:")
			for _, name := range r.ListPresets() {
				p, err := r.GetPreset(name)
				if err != nil {
					return err
				}
				fmt.Printf("  %-14s rs=%g ld=%g lq=%g psi=%g poles=%g  va=%gV ia=%gA\n",
					name, p.Motor.Rs, p.Motor.Ld, p.Motor.Lq, p.Motor.PsiA, p.Motor.Poles,
					p.Limits.VaLim, p.Limits.IaLim)
			}
			return nil
		},
	}
}
