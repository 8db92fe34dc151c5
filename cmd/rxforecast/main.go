// Command rxforecast summarises regional prescribing data and forecasts the
// national monthly total with ARIMA models.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/rxforecast/internal/config"
	"github.com/sartorproj/rxforecast/internal/logging"
)

var (
	// Global flags
	cfgPath   string
	inputPath string
	encoding  string
	measure   string
	outDir    string
	verbose   bool
	jsonOut   bool
	seasonal  bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rxforecast",
	Short: "Prescribing trends and ARIMA forecasts",
	Long: `rxforecast reads a regional drug summary extract (CSV, Parquet or a
Postgres table), aggregates it to national monthly totals and fits ARIMA
models to forecast them.

Settings come from a YAML file (--config), RXFORECAST_* environment
variables and flags, with flags taking precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format, verbose)
		if err != nil {
			return err
		}
		logger.Debug("Configuration loaded",
			zap.String("config", cfgPath),
			zap.String("input", cfg.Input.Path),
			zap.String("format", cfg.InputFormat()),
			zap.String("measure", cfg.Input.Measure))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Path = inputPath
	}
	if flags.Changed("encoding") {
		cfg.Input.Encoding = encoding
	}
	if flags.Changed("measure") {
		cfg.Input.Measure = measure
	}
	if flags.Changed("output") {
		cfg.Output.Dir = outDir
	}
	if flags.Changed("json") {
		cfg.Output.JSON = jsonOut
	}
	if seasonal && cfg.Model.Seasonal == (config.SeasonalConfig{}) {
		cfg.Model.Seasonal = config.DefaultSeasonal
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "rxforecast.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "Input extract (csv or parquet)")
	rootCmd.PersistentFlags().StringVar(&encoding, "encoding", "", "Character encoding of a CSV input, e.g. utf-8 or windows-1252")
	rootCmd.PersistentFlags().StringVarP(&measure, "measure", "m", "", "Measure to analyse: items or cost")
	rootCmd.PersistentFlags().StringVarP(&outDir, "output", "o", "", "Directory for charts and exports")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Also write the results as JSON")
	rootCmd.PersistentFlags().BoolVar(&seasonal, "seasonal", false, "Add a seasonal AR(1) term with period 12 to the model")

	rootCmd.AddCommand(monthlyCmd)
	rootCmd.AddCommand(annualCmd)
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(topDrugsCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(normalityCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(initConfigCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if logger != nil {
			logger.Error("Command failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
