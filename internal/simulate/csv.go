package simulate

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"silo-dispatch/internal/model"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	return writeFile(path, func(w io.Writer) error { return EncodeLedgerCSV(w, ledger) })
}

func EncodeLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"date",
		"morning_stock",
		"morning_status",
		"evening_stock",
		"evening_status",
		"delivery_count",
		"delivery_times",
		"delivery_amount",
		"delivered_level",
		"night_deliveries",
		"cum_deliveries",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtDate(r.Date),
			fmtFloat(float64(r.MorningStock)),
			string(r.MorningState),
			fmtFloat(float64(r.EveningStock)),
			string(r.EveningState),
			strconv.Itoa(r.DeliveryCount),
			r.DeliveryTimes,
			fmtFloat(float64(r.DeliveryAmount)),
			fmtFloat(float64(r.DeliveredLevel)),
			fmtFloat(float64(r.NightDeliveries)),
			strconv.Itoa(r.CumDeliveries),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func WriteStockLogCSV(path string, s model.Settings, log []model.StockLogEntry) error {
	return writeFile(path, func(w io.Writer) error { return EncodeStockLogCSV(w, s, log) })
}

// EncodeStockLogCSV writes one row per hour with the advisory status band.
func EncodeStockLogCSV(out io.Writer, s model.Settings, log []model.StockLogEntry) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"timestamp", "stock", "status"}); err != nil {
		return err
	}
	for _, e := range log {
		row := []string{
			fmtTime(e.Timestamp),
			fmtFloat(float64(e.Stock)),
			string(model.Classify(e.Stock, s.MinLevel, s.MaxLevel)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
