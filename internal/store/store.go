// Package store persists delivery schedules in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"silo-dispatch/internal/logger"
	"silo-dispatch/internal/model"
)

// ErrNotFound is returned when no schedule exists for a facility and product.
var ErrNotFound = errors.New("schedule not found")

const schema = `
CREATE TABLE IF NOT EXISTS schedules (
	facility   TEXT NOT NULL,
	product    TEXT NOT NULL,
	settings   TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (facility, product)
);
CREATE TABLE IF NOT EXISTS delivery_days (
	facility            TEXT    NOT NULL,
	product             TEXT    NOT NULL,
	day                 TEXT    NOT NULL,
	morning_stock       REAL    NOT NULL,
	evening_stock       REAL    NOT NULL,
	delivery_count      INTEGER NOT NULL,
	delivery_times      TEXT    NOT NULL,
	pre_delivery_stock  TEXT    NOT NULL,
	post_delivery_stock TEXT    NOT NULL,
	delivery_amount     REAL,
	night_deliveries    REAL    NOT NULL DEFAULT 0,
	unresolved          INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (facility, product, day)
);`

// Schedule is a persisted plan for one product at one facility.
type Schedule struct {
	Facility  string              `json:"facility"`
	Product   string              `json:"product"`
	Settings  model.Settings      `json:"settings"`
	Days      []model.DeliveryDay `json:"days"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type Store struct {
	db  *sqlx.DB
	log logger.Logger
}

// Open opens (and creates) the database at path in WAL mode.
func Open(path string, log logger.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db, log: logger.OrNop(log)}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a transaction, rolling back on error.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Errorf("could not rollback transaction: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// SaveSchedule replaces the stored schedule for sc.Facility and sc.Product.
func (s *Store) SaveSchedule(ctx context.Context, sc Schedule) error {
	raw, err := json.Marshal(sc.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		const upsert = `
			INSERT INTO schedules (facility, product, settings, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(facility, product) DO UPDATE SET
				settings = excluded.settings,
				updated_at = excluded.updated_at`
		if _, err := tx.ExecContext(ctx, upsert, sc.Facility, sc.Product, string(raw),
			time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("upsert schedule: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM delivery_days WHERE facility = ? AND product = ?`, sc.Facility, sc.Product); err != nil {
			return fmt.Errorf("clear days: %w", err)
		}
		return upsertDays(ctx, tx, sc.Facility, sc.Product, sc.Days)
	})
}

// SaveDays upserts days of an existing schedule in one transaction.
func (s *Store) SaveDays(ctx context.Context, facility, product string, days []model.DeliveryDay) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE schedules SET updated_at = ? WHERE facility = ? AND product = ?`,
			time.Now().UTC().Format(time.RFC3339), facility, product)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, facility, product)
		}
		return upsertDays(ctx, tx, facility, product, days)
	})
}

// LoadSchedule returns the schedule with its days in ascending order.
func (s *Store) LoadSchedule(ctx context.Context, facility, product string) (*Schedule, error) {
	var row struct {
		Settings  string `db:"settings"`
		UpdatedAt string `db:"updated_at"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT settings, updated_at FROM schedules WHERE facility = ? AND product = ?`, facility, product)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, facility, product)
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	sc := &Schedule{Facility: facility, Product: product}
	if err := json.Unmarshal([]byte(row.Settings), &sc.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	sc.UpdatedAt, _ = time.Parse(time.RFC3339, row.UpdatedAt)

	sc.Days, err = s.LoadDays(ctx, facility, product, sc.Settings.StartDate.Location())
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// LoadDays returns the stored days in ascending order, dated in loc.
func (s *Store) LoadDays(ctx context.Context, facility, product string, loc *time.Location) ([]model.DeliveryDay, error) {
	if loc == nil {
		loc = time.UTC
	}
	var rows []dayRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT day, morning_stock, evening_stock, delivery_count, delivery_times,
			pre_delivery_stock, post_delivery_stock, delivery_amount, night_deliveries, unresolved
		FROM delivery_days
		WHERE facility = ? AND product = ?
		ORDER BY day`, facility, product)
	if err != nil {
		return nil, fmt.Errorf("load days: %w", err)
	}
	days := make([]model.DeliveryDay, 0, len(rows))
	for _, r := range rows {
		d, err := r.toModel(loc)
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", r.Day, err)
		}
		days = append(days, d)
	}
	return days, nil
}

// DeleteSchedule removes a schedule and its days.
func (s *Store) DeleteSchedule(ctx context.Context, facility, product string) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM delivery_days WHERE facility = ? AND product = ?`, facility, product); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM schedules WHERE facility = ? AND product = ?`, facility, product)
		return err
	})
}

// MarkUnresolved flags a day that was changed without a recalculation.
func (s *Store) MarkUnresolved(ctx context.Context, facility, product string, day time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE delivery_days SET unresolved = 1 WHERE facility = ? AND product = ? AND day = ?`,
		facility, product, day.Format(time.DateOnly))
	if err != nil {
		return fmt.Errorf("mark unresolved: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s/%s day %s", ErrNotFound, facility, product, day.Format(time.DateOnly))
	}
	return nil
}

// Key identifies a stored schedule.
type Key struct {
	Facility string `db:"facility" json:"facility"`
	Product  string `db:"product" json:"product"`
}

func (s *Store) ListSchedules(ctx context.Context) ([]Key, error) {
	var keys []Key
	if err := s.db.SelectContext(ctx, &keys,
		`SELECT facility, product FROM schedules ORDER BY facility, product`); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return keys, nil
}

func upsertDays(ctx context.Context, tx *sqlx.Tx, facility, product string, days []model.DeliveryDay) error {
	const q = `
		INSERT INTO delivery_days (
			facility, product, day, morning_stock, evening_stock, delivery_count, delivery_times,
			pre_delivery_stock, post_delivery_stock, delivery_amount, night_deliveries, unresolved
		) VALUES (
			:facility, :product, :day, :morning_stock, :evening_stock, :delivery_count, :delivery_times,
			:pre_delivery_stock, :post_delivery_stock, :delivery_amount, :night_deliveries, :unresolved
		)
		ON CONFLICT(facility, product, day) DO UPDATE SET
			morning_stock = excluded.morning_stock,
			evening_stock = excluded.evening_stock,
			delivery_count = excluded.delivery_count,
			delivery_times = excluded.delivery_times,
			pre_delivery_stock = excluded.pre_delivery_stock,
			post_delivery_stock = excluded.post_delivery_stock,
			delivery_amount = excluded.delivery_amount,
			night_deliveries = excluded.night_deliveries,
			unresolved = excluded.unresolved`
	for _, d := range days {
		r, err := fromModel(facility, product, d)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, q, r); err != nil {
			return fmt.Errorf("upsert day %s: %w", r.Day, err)
		}
	}
	return nil
}
