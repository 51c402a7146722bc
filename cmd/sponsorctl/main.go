// Command sponsorctl runs maintenance tasks against the sponsorly database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sponsorly/config"
	"sponsorly/database"
	"sponsorly/utils"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sponsorctl",
	Short: "Maintenance commands for the sponsorly backend",
	Long: `sponsorctl talks to the same MongoDB the API uses, configured through
the usual environment variables or .env file.

Examples:
  sponsorctl seed --reset
  sponsorctl report 4f1c...
  sponsorctl rfm`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadConfig()
		database.InitDB()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, reportCmd, rfmCmd)
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	defer utils.GetLogger().Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
