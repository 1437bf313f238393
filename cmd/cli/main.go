package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"silo-dispatch/internal/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "cli",
	Short: "Plan and recalculate silo delivery schedules",
	Long: `Examples:
  cli simulate --settings configs/settings.yaml --out-dir results
  cli recalc --schedule results/schedule.json --day 1 --field delivery_count --value 1
  cli reconcile --schedule results/schedule.json
  cli products --catalog configs/catalog.yaml`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLevel(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
