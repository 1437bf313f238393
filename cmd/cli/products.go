package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"silo-dispatch/internal/config"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/simulate"
)

var catalogPath string

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the products of a catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := config.LoadCatalog(catalogPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-16s %-24s %-10s %-10s %-10s %-8s\n", "key", "name", "min", "max", "delivery", "factor")
		for _, key := range cat.Keys() {
			p := cat.Products[key]
			factor := model.Settings{ConversionRate: p.ConversionRate, Unit: p.Unit}.Factor()
			fmt.Fprintf(out, "%-16s %-24s %-10.2f %-10.2f %-10.2f %-8.2f\n",
				key, p.Name, float64(p.MinLevel), float64(p.MaxLevel), float64(p.DeliveryAmount), float64(factor))
		}
		return nil
	},
}

func init() {
	productsCmd.Flags().StringVar(&catalogPath, "catalog", "configs/catalog.yaml", "catalog YAML")
	rootCmd.AddCommand(productsCmd)
}

func printLedger(out io.Writer, ledger []simulate.LedgerRow) {
	fmt.Fprintf(out, "%-4s %-12s %-10s %-10s %-6s %-6s %-20s %-10s\n",
		"day", "date", "morning", "evening", "m", "e", "deliveries", "night")
	for _, r := range ledger {
		fmt.Fprintf(out, "%-4d %-12s %-10.2f %-10.2f %-6s %-6s %-20s %-10.2f\n",
			r.Index, r.Date.Format("2006-01-02"), float64(r.MorningStock), float64(r.EveningStock),
			r.MorningState, r.EveningState, r.DeliveryTimes, float64(r.NightDeliveries))
	}
}
