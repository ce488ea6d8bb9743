package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/flexbid/app"
	"github.com/kilianp07/flexbid/config"
)

var (
	cfgPath   string
	outDir    string
	outFormat string
)

var rootCmd = &cobra.Command{
	Use:          "flexbid",
	Short:        "Day-ahead flexibility bid optimizer",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file (empty for defaults and FB_ environment only)")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "override export.dir")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "format", "f", "", "override export.format (csv, json, yaml)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration and applies the output flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if outDir != "" {
		cfg.Export.Dir = outDir
	}
	if outFormat != "" {
		cfg.Export.Format = outFormat
		if err := cfg.Export.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// withService builds the service, runs fn under a signal-aware context and
// closes the service afterwards.
func withService(fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}
