package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"silo-dispatch/internal/analysis"
	"silo-dispatch/internal/config"
	"silo-dispatch/internal/data"
	"silo-dispatch/internal/logger"
	"silo-dispatch/internal/simulate"
)

var simulateOpts struct {
	settings string
	outDir   string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the forward simulation and write the schedule, stock log and JSON",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateOpts.settings, "settings", "", "settings YAML")
	simulateCmd.Flags().StringVar(&simulateOpts.outDir, "out-dir", "results", "output directory")
	_ = simulateCmd.MarkFlagRequired("settings")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	s, err := config.LoadSettings(simulateOpts.settings)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	res, err := simulate.New(logger.New("simulate")).Run(s)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(simulateOpts.outDir, 0o755); err != nil {
		return err
	}
	schedulePath := filepath.Join(simulateOpts.outDir, "schedule.csv")
	stockPath := filepath.Join(simulateOpts.outDir, "stocklog.csv")
	jsonPath := filepath.Join(simulateOpts.outDir, "schedule.json")

	ledger := simulate.Ledger(s, res.Days)
	if err := simulate.WriteLedgerCSV(schedulePath, ledger); err != nil {
		return err
	}
	if err := simulate.WriteStockLogCSV(stockPath, s, res.StockLog); err != nil {
		return err
	}
	if err := data.SaveScheduleJSON(jsonPath, &data.ScheduleFile{Settings: s, Days: res.Days, StockLog: res.StockLog}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printLedger(out, ledger)
	for _, c := range res.Corrections {
		fmt.Fprintf(out, "look-ahead: %s\n", c)
	}

	sum := analysis.Summarize(s, res.Days, res.StockLog)
	fmt.Fprintf(out, "\n%d deliveries (%.2f delivered), stock min=%.2f mean=%.2f max=%.2f, %d hours LOW\n",
		sum.Deliveries, float64(sum.DeliveredMass), float64(sum.MinStock), float64(sum.MeanStock), float64(sum.MaxStock), sum.HoursLow)
	fmt.Fprintf(out, "Wrote %s, %s and %s\n", schedulePath, stockPath, jsonPath)
	return nil
}
