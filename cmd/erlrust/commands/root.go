package commands

import (
	"github.com/Rustixir/erlrust/internal/build"
	"github.com/spf13/cobra"
)

// logLevel is the minimum level passed to build.InitLogging.
var logLevel string

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "erlrust",
	Short: "Demonstrate the erlrust generic-server processes",
	Long: `erlrust drives small, in-process gensrv processes end to end: calls,
casts, signals, timeouts, and named lookup through a Registry.

Every command spawns its own process and stops it before exiting; nothing
here persists state across invocations.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		build.InitLogging(build.InitLoggingConfig{Level: logLevel})
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info",
		"Minimum log level: trace, debug, info, warn, error",
	)

	rootCmd.AddCommand(cacheCmd)
}
