// Command textbulker runs the TextBulker connector and manages its settings.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/textbulker/textbulker"
)

var (
	configPath string
	verbose    bool

	cfg    textbulker.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "textbulker",
	Short: "TextBulker connector server and settings tool",
	Long: `textbulker serves the TextBulker connector: the version and ping
endpoints, the content API with SEO meta exposure, and the admin
settings page.

Configuration is read from a YAML file (--config or TEXTBULKER_CONFIG)
and TEXTBULKER_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = textbulker.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		logger, err = textbulker.NewLogger(cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", textbulker.EnvOr("TEXTBULKER_CONFIG", ""), "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(serveCmd, activateCmd, settingsCmd, versionCmd, hashPasswordCmd)
}

// openApp opens the store and manager without serving HTTP.
func openApp() (*textbulker.App, error) {
	a := textbulker.New(cfg, textbulker.WithLogger(logger))
	if err := a.Open(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
