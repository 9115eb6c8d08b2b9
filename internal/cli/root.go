// Package cli implements the cdpconn command surface: a thin operator tool
// over the transport client for poking at a live CDP endpoint.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mbates/cdpconn/internal/cdp"
)

// Version is set at build time.
var Version = "dev"

// Debug enables verbose debug output.
var Debug bool

// JSONOutput forces JSON output even on a TTY.
var JSONOutput bool

var (
	flagURL     string
	flagConfig  string
	flagTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "cdpconn",
	Short:         "Chrome DevTools Protocol transport client",
	Long:          "cdpconn talks to a CDP WebSocket endpoint: send commands, stream events, and attach to targets over one multiplexed connection.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "CDP WebSocket URL (overrides config file)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to TOML config file")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Per-command timeout (overrides config file)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().BoolVar(&JSONOutput, "json", false, "Output in JSON format")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logger builds the client logger: console output when --debug is set,
// silent otherwise.
func logger() zerolog.Logger {
	if !Debug {
		return zerolog.Nop()
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "cdpconn").Logger()
}

// connect resolves settings from flags and config file and dials the
// endpoint.
func connect(cmd *cobra.Command) (*cdp.Client, error) {
	settings, err := loadSettings(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagURL != "" {
		settings.URL = flagURL
	}
	if settings.URL == "" {
		return nil, fmt.Errorf("no CDP endpoint: pass --url or set url in the config file")
	}
	if flagTimeout > 0 {
		settings.Config.CommandTimeout = flagTimeout
	}
	settings.Config.Logger = logger()

	return cdp.Dial(cmd.Context(), settings.URL, settings.Config)
}
