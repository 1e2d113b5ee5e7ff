// Package cli holds the newsdaily command line: the server plus a few
// maintenance commands that work on the same store.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsdaily-web/internal/app"
	"newsdaily-web/internal/config"
	"newsdaily-web/internal/logging"
)

var configPath string

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:           "newsdaily [command] [flags]",
	Short:         "NewsDaily: a self-hosted news site",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// Execute runs the command line. It is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgHiRed, color.Bold).Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}

// openApp loads the configuration and builds the application. The caller
// syncs the returned logger.
func openApp() (*app.App, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return a, logger, nil
}
