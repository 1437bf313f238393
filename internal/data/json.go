package data

import (
	"encoding/json"
	"fmt"
	"os"

	"silo-dispatch/internal/model"
)

// ScheduleFile is the JSON form of a schedule exchanged with the CLI.
type ScheduleFile struct {
	Settings model.Settings        `json:"settings"`
	Days     []model.DeliveryDay   `json:"days"`
	StockLog []model.StockLogEntry `json:"stock_log,omitempty"`
}

func LoadScheduleJSON(path string) (*ScheduleFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf ScheduleFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(sf.Days) == 0 {
		return nil, fmt.Errorf("%s: schedule has no days", path)
	}
	return &sf, nil
}

func SaveScheduleJSON(path string, sf *ScheduleFile) error {
	raw, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
