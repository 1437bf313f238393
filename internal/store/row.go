package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"silo-dispatch/internal/model"
)

// dayRow is the delivery_days row. Array fields are JSON text.
type dayRow struct {
	Facility        string          `db:"facility"`
	Product         string          `db:"product"`
	Day             string          `db:"day"`
	MorningStock    float64         `db:"morning_stock"`
	EveningStock    float64         `db:"evening_stock"`
	DeliveryCount   int             `db:"delivery_count"`
	DeliveryTimes   string          `db:"delivery_times"`
	PreDelivery     string          `db:"pre_delivery_stock"`
	PostDelivery    string          `db:"post_delivery_stock"`
	DeliveryAmount  sql.NullFloat64 `db:"delivery_amount"`
	NightDeliveries float64         `db:"night_deliveries"`
	Unresolved      bool            `db:"unresolved"`
}

func fromModel(facility, product string, d model.DeliveryDay) (dayRow, error) {
	r := dayRow{
		Facility:        facility,
		Product:         product,
		Day:             d.Date.Format(time.DateOnly),
		MorningStock:    float64(d.MorningStock),
		EveningStock:    float64(d.EveningStock),
		DeliveryCount:   d.DeliveryCount,
		NightDeliveries: float64(d.NightDeliveries),
		Unresolved:      d.Unresolved,
	}
	if d.DeliveryAmount != nil {
		r.DeliveryAmount = sql.NullFloat64{Float64: float64(*d.DeliveryAmount), Valid: true}
	}
	var err error
	if r.DeliveryTimes, err = jsonText(nonNil(d.DeliveryTimes)); err != nil {
		return dayRow{}, err
	}
	if r.PreDelivery, err = jsonText(nonNil(d.PreDeliveryStock)); err != nil {
		return dayRow{}, err
	}
	if r.PostDelivery, err = jsonText(nonNil(d.PostDeliveryStock)); err != nil {
		return dayRow{}, err
	}
	return r, nil
}

func (r dayRow) toModel(loc *time.Location) (model.DeliveryDay, error) {
	date, err := time.ParseInLocation(time.DateOnly, r.Day, loc)
	if err != nil {
		return model.DeliveryDay{}, err
	}
	d := model.DeliveryDay{
		Date:            date,
		MorningStock:    model.Level(r.MorningStock),
		EveningStock:    model.Level(r.EveningStock),
		DeliveryCount:   r.DeliveryCount,
		NightDeliveries: model.Level(r.NightDeliveries),
		Unresolved:      r.Unresolved,
	}
	if r.DeliveryAmount.Valid {
		amt := model.Mass(r.DeliveryAmount.Float64)
		d.DeliveryAmount = &amt
	}
	if err := json.Unmarshal([]byte(r.DeliveryTimes), &d.DeliveryTimes); err != nil {
		return model.DeliveryDay{}, fmt.Errorf("delivery_times: %w", err)
	}
	if err := json.Unmarshal([]byte(r.PreDelivery), &d.PreDeliveryStock); err != nil {
		return model.DeliveryDay{}, fmt.Errorf("pre_delivery_stock: %w", err)
	}
	if err := json.Unmarshal([]byte(r.PostDelivery), &d.PostDeliveryStock); err != nil {
		return model.DeliveryDay{}, fmt.Errorf("post_delivery_stock: %w", err)
	}
	if len(d.DeliveryTimes) == 0 {
		d.DeliveryTimes, d.PreDeliveryStock, d.PostDeliveryStock = nil, nil, nil
	}
	return d, nil
}

func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
