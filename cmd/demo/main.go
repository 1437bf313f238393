package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"silo-dispatch/internal/config"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/recalc"
	"silo-dispatch/internal/simulate"
)

// Demo:
// - Simulate a two-day caustic soda plan (min 30, 29 per delivery, 40 per day)
// - Print the schedule and the hourly stock around each delivery
// - Drop one delivery of day 1 and show the cascade
func main() {
	var settingsPath, outCSV string
	cmd := &cobra.Command{
		Use:          "demo",
		Short:        "Simulate a sample plan and show a recalculation cascade",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), settingsPath, outCSV)
		},
	}
	cmd.Flags().StringVar(&settingsPath, "settings", "", "path to settings YAML (optional)")
	cmd.Flags().StringVar(&outCSV, "out", "", "optional path to write the schedule CSV (e.g. results/schedule.csv)")
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDemo(w io.Writer, settingsPath, outCSV string) error {

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := model.Settings{
		ProductKey:     "caustic",
		MinLevel:       30,
		MaxLevel:       80,
		CurrentStock:   50,
		DeliveryAmount: 29,
		DailyUsage:     []model.DailyUsage{model.DailyTotal(40)},
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 1),
	}
	if settingsPath != "" {
		loaded, err := config.LoadSettings(settingsPath)
		if err != nil {
			return err
		}
		s = loaded
	}

	res, err := simulate.New(nil).Run(s)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d days, min=%.0f max=%.0f, delivery=%.0f\n\n",
		s.ProductKey, len(res.Days), float64(s.MinLevel), float64(s.MaxLevel), float64(s.DeliveryAmount))
	fmt.Fprintf(w, "%-12s %-9s %-9s %-16s %-20s %-20s\n", "date", "morning", "evening", "times", "pre", "post")
	for _, d := range res.Days {
		fmt.Fprintf(w, "%-12s %-9.2f %-9.2f %-16s %-20s %-20s\n",
			d.Date.Format("2006-01-02"), float64(d.MorningStock), float64(d.EveningStock),
			fmt.Sprint(d.DeliveryTimes), fmtLevels(d.PreDeliveryStock), fmtLevels(d.PostDeliveryStock))
	}
	for _, c := range res.Corrections {
		fmt.Fprintf(w, "look-ahead: %s\n", c)
	}

	fmt.Fprintf(w, "\nStock log around deliveries:\n")
	for i, e := range res.StockLog {
		if i == 0 || e.Stock <= res.StockLog[i-1].Stock {
			continue
		}
		fmt.Fprintf(w, "  %s  %.2f -> %.2f\n", e.Timestamp.Format("2006-01-02 15:04"), float64(res.StockLog[i-1].Stock), float64(e.Stock))
	}

	if outCSV != "" {
		if err := simulate.WriteLedgerCSV(outCSV, simulate.Ledger(s, res.Days)); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nWrote schedule to %s\n", outCSV)
	}

	if len(res.Days) < 2 || res.Days[1].DeliveryCount == 0 {
		return nil
	}
	edit := recalc.Edit{Day: 1, Field: recalc.FieldDeliveryCount, Count: res.Days[1].DeliveryCount - 1}
	rc, err := recalc.New(nil).Apply(s, res.Days, edit, recalc.Options{})
	if err != nil {
		return err
	}
	d := rc.Days[1]
	fmt.Fprintf(w, "\nAfter dropping one delivery on %s: times %v, evening %.2f (carry delta %.2f, %d later days shifted)\n",
		d.Date.Format("2006-01-02"), d.DeliveryTimes, float64(d.EveningStock), float64(rc.Delta), rc.CascadedDays)
	return nil
}

func fmtLevels(ls []model.Level) string {
	out := "["
	for i, l := range ls {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%.2f", float64(l))
	}
	return out + "]"
}
