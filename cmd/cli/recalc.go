package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"silo-dispatch/internal/config"
	"silo-dispatch/internal/data"
	"silo-dispatch/internal/logger"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/recalc"
	"silo-dispatch/internal/simulate"
)

var recalcOpts struct {
	settings string
	schedule string
	out      string
	day      int
	field    string
	index    int
	value    string
}

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Apply one edit to a schedule JSON and cascade it to later days",
	RunE:  runRecalc,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute every unresolved day of a schedule JSON",
	RunE:  runReconcile,
}

func init() {
	f := recalcCmd.Flags()
	f.StringVar(&recalcOpts.settings, "settings", "", "settings YAML (defaults to the settings stored in the schedule)")
	f.StringVar(&recalcOpts.schedule, "schedule", "", "schedule JSON written by simulate")
	f.StringVar(&recalcOpts.out, "out", "", "output path (defaults to --schedule)")
	f.IntVar(&recalcOpts.day, "day", 0, "day index to edit")
	f.StringVar(&recalcOpts.field, "field", "", "delivery_time, delivery_count, delivery_amount, morning_stock, evening_stock or recompute")
	f.IntVar(&recalcOpts.index, "index", 0, "delivery index for delivery_time")
	f.StringVar(&recalcOpts.value, "value", "", "new value (HH:MM for delivery_time)")
	_ = recalcCmd.MarkFlagRequired("schedule")
	_ = recalcCmd.MarkFlagRequired("field")

	reconcileCmd.Flags().StringVar(&recalcOpts.schedule, "schedule", "", "schedule JSON written by simulate")
	reconcileCmd.Flags().StringVar(&recalcOpts.out, "out", "", "output path (defaults to --schedule)")
	_ = reconcileCmd.MarkFlagRequired("schedule")

	rootCmd.AddCommand(recalcCmd, reconcileCmd)
}

func runRecalc(cmd *cobra.Command, args []string) error {
	sf, err := data.LoadScheduleJSON(recalcOpts.schedule)
	if err != nil {
		return err
	}
	if recalcOpts.settings != "" {
		if sf.Settings, err = config.LoadSettings(recalcOpts.settings); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
	}

	edit, err := parseEdit(recalcOpts.day, recalcOpts.field, recalcOpts.index, recalcOpts.value)
	if err != nil {
		return err
	}
	res, err := recalc.New(logger.New("recalc")).Apply(sf.Settings, sf.Days, edit, recalc.Options{RegenerateLog: true})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "day %d %s: carry delta %.2f, %d later days shifted\n",
		edit.Day, edit.Field, float64(res.Delta), res.CascadedDays)
	return save(cmd.OutOrStdout(), sf.Settings, res)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	sf, err := data.LoadScheduleJSON(recalcOpts.schedule)
	if err != nil {
		return err
	}
	res, err := recalc.New(logger.New("recalc")).Reconcile(sf.Settings, sf.Days, recalc.Options{RegenerateLog: true})
	if err != nil {
		return err
	}
	return save(cmd.OutOrStdout(), sf.Settings, res)
}

func save(out io.Writer, s model.Settings, res *recalc.Result) error {
	path := recalcOpts.out
	if path == "" {
		path = recalcOpts.schedule
	}
	if err := data.SaveScheduleJSON(path, &data.ScheduleFile{Settings: s, Days: res.Days, StockLog: res.StockLog}); err != nil {
		return err
	}
	printLedger(out, simulate.Ledger(s, res.Days))
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

// parseEdit turns the flag values into an edit; value is read according to
// field.
func parseEdit(day int, field string, index int, value string) (recalc.Edit, error) {
	f, err := recalc.ParseField(field)
	if err != nil {
		return recalc.Edit{}, err
	}
	edit := recalc.Edit{Day: day, Field: f, Index: index}
	switch f {
	case recalc.FieldRecompute:
		return edit, nil
	case recalc.FieldDeliveryTime:
		edit.Hour, err = model.ParseHour(value)
	case recalc.FieldDeliveryCount:
		edit.Count, err = strconv.Atoi(value)
	default:
		var v float64
		v, err = strconv.ParseFloat(value, 64)
		if f == recalc.FieldDeliveryAmount {
			edit.Amount = model.Mass(v)
		} else {
			edit.Stock = model.Level(v)
		}
	}
	if err != nil {
		return recalc.Edit{}, fmt.Errorf("%w: value %q for %s: %v", model.ErrInvalidEdit, value, f, err)
	}
	return edit, nil
}
