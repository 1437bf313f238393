// Package service wires the engines to the catalog, the schedule store, the
// result cache and metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"silo-dispatch/internal/analysis"
	"silo-dispatch/internal/config"
	"silo-dispatch/internal/data"
	"silo-dispatch/internal/logger"
	"silo-dispatch/internal/metrics"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/recalc"
	"silo-dispatch/internal/simulate"
	"silo-dispatch/internal/store"
)

// ErrNoStore is returned by schedule operations when persistence is off.
var ErrNoStore = errors.New("schedule store not configured")

// ErrRunNotFound is returned for unknown or expired simulation IDs.
var ErrRunNotFound = errors.New("simulation not found")

// ScheduleStore is the persistence the planner needs.
type ScheduleStore interface {
	SaveSchedule(ctx context.Context, sc store.Schedule) error
	LoadSchedule(ctx context.Context, facility, product string) (*store.Schedule, error)
	SaveDays(ctx context.Context, facility, product string, days []model.DeliveryDay) error
	MarkUnresolved(ctx context.Context, facility, product string, day time.Time) error
	DeleteSchedule(ctx context.Context, facility, product string) error
	ListSchedules(ctx context.Context) ([]store.Key, error)
}

// ProductRequest asks for a simulation of one catalog product.
type ProductRequest struct {
	Facility     string
	ProductKey   string
	Start        time.Time
	End          time.Time
	CurrentStock model.Level
	Override     config.ProductConfig
}

type Options struct {
	Catalog     *config.Catalog
	Store       ScheduleStore
	Cache       *data.ResultCache
	Metrics     metrics.Sink
	Log         logger.Logger
	Concurrency int
}

type Planner struct {
	catalog     *config.Catalog
	store       ScheduleStore
	cache       *data.ResultCache
	metrics     metrics.Sink
	log         logger.Logger
	sim         *simulate.Engine
	recalc      *recalc.Engine
	concurrency int
}

func NewPlanner(opts Options) *Planner {
	p := &Planner{
		catalog:     opts.Catalog,
		store:       opts.Store,
		cache:       opts.Cache,
		metrics:     opts.Metrics,
		log:         logger.OrNop(opts.Log),
		concurrency: opts.Concurrency,
	}
	if p.cache == nil {
		p.cache = data.NewResultCache(0)
	}
	if p.metrics == nil {
		p.metrics = metrics.NopSink{}
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	p.sim = simulate.New(p.log)
	p.recalc = recalc.New(p.log)
	return p
}

// Catalog returns the product catalog, which may be nil.
func (p *Planner) Catalog() *config.Catalog { return p.catalog }

// Persistent reports whether schedules are stored.
func (p *Planner) Persistent() bool { return p.store != nil }

// Settings resolves a product request against the catalog.
func (p *Planner) Settings(req ProductRequest) (model.Settings, error) {
	if req.ProductKey == "" {
		return model.Settings{}, fmt.Errorf("%w: product_key is required", model.ErrUnknownProduct)
	}
	return p.catalog.Settings(req.ProductKey, req.Start, req.End, req.CurrentStock, req.Override)
}

// Simulate runs the forward engine, caches the result and, when facility is
// set and a store is configured, persists the schedule.
func (p *Planner) Simulate(ctx context.Context, facility string, s model.Settings) (data.Run, error) {
	started := time.Now()
	res, err := p.sim.Run(s)
	if err != nil {
		p.metrics.RecordRejection("simulate", reason(err))
		return data.Run{}, err
	}

	unplaced := 0
	for _, c := range res.Corrections {
		if c.Hour == nil {
			unplaced++
		}
	}
	p.metrics.RecordSimulation(metrics.SimulationEvent{
		Product:     s.ProductKey,
		Days:        len(res.Days),
		Deliveries:  res.Deliveries,
		Corrections: len(res.Corrections) - unplaced,
		Unplaced:    unplaced,
		Duration:    time.Since(started),
	})

	if facility != "" && p.store != nil {
		if err := p.store.SaveSchedule(ctx, store.Schedule{
			Facility: facility,
			Product:  s.ProductKey,
			Settings: s,
			Days:     res.Days,
		}); err != nil {
			return data.Run{}, fmt.Errorf("save schedule: %w", err)
		}
	}
	return p.cache.Put(facility, s, res), nil
}

// SimulateProduct resolves req against the catalog and simulates it.
func (p *Planner) SimulateProduct(ctx context.Context, req ProductRequest) (data.Run, error) {
	s, err := p.Settings(req)
	if err != nil {
		p.metrics.RecordRejection("simulate", reason(err))
		return data.Run{}, err
	}
	return p.Simulate(ctx, req.Facility, s)
}

// Run returns a cached simulation.
func (p *Planner) Run(id uuid.UUID) (data.Run, error) {
	run, ok := p.cache.Get(id)
	if !ok {
		return data.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

// Recalculate applies an edit to a caller-held schedule.
func (p *Planner) Recalculate(s model.Settings, days []model.DeliveryDay, edit recalc.Edit, opts recalc.Options) (*recalc.Result, error) {
	res, err := p.recalc.Apply(s, days, edit, opts)
	if err != nil {
		p.metrics.RecordRejection("recalculate", reason(err))
		return nil, err
	}
	p.metrics.RecordRecalculation(metrics.RecalcEvent{
		Product:  s.ProductKey,
		Field:    string(edit.Field),
		Cascaded: res.CascadedDays,
	})
	return res, nil
}

// Schedule loads a stored schedule.
func (p *Planner) Schedule(ctx context.Context, facility, product string) (*store.Schedule, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	return p.store.LoadSchedule(ctx, facility, product)
}

// Edit applies an edit to a stored schedule and saves every rewritten day in
// one transaction. The returned result carries a regenerated stock log.
func (p *Planner) Edit(ctx context.Context, facility, product string, edit recalc.Edit) (*recalc.Result, error) {
	sc, err := p.Schedule(ctx, facility, product)
	if err != nil {
		return nil, err
	}
	res, err := p.Recalculate(sc.Settings, sc.Days, edit, recalc.Options{RegenerateLog: true})
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveDays(ctx, facility, product, res.Days[edit.Day:]); err != nil {
		return nil, fmt.Errorf("save days: %w", err)
	}
	return res, nil
}

// Schedules lists the stored schedule keys.
func (p *Planner) Schedules(ctx context.Context) ([]store.Key, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	return p.store.ListSchedules(ctx)
}

func (p *Planner) DeleteSchedule(ctx context.Context, facility, product string) error {
	if p.store == nil {
		return ErrNoStore
	}
	return p.store.DeleteSchedule(ctx, facility, product)
}

// MarkUnresolved flags a stored day changed outside the engines.
func (p *Planner) MarkUnresolved(ctx context.Context, facility, product string, day time.Time) error {
	if p.store == nil {
		return ErrNoStore
	}
	return p.store.MarkUnresolved(ctx, facility, product, day)
}

// Reconcile recomputes every unresolved stored day and saves the schedule.
func (p *Planner) Reconcile(ctx context.Context, facility, product string) (*recalc.Result, error) {
	sc, err := p.Schedule(ctx, facility, product)
	if err != nil {
		return nil, err
	}
	res, err := p.recalc.Reconcile(sc.Settings, sc.Days, recalc.Options{RegenerateLog: true})
	if err != nil {
		p.metrics.RecordRejection("reconcile", reason(err))
		return nil, err
	}
	if err := p.store.SaveDays(ctx, facility, product, res.Days); err != nil {
		return nil, fmt.Errorf("save days: %w", err)
	}
	p.metrics.RecordRecalculation(metrics.RecalcEvent{
		Product:  product,
		Field:    string(recalc.FieldRecompute),
		Cascaded: res.CascadedDays,
	})
	return res, nil
}

// Planned is one product's outcome in a multi-product plan.
type Planned struct {
	RunID   uuid.UUID        `json:"run_id"`
	Summary analysis.Summary `json:"summary"`
}

// PlanAll simulates every request concurrently and returns the outcomes most
// at risk first. The first failure cancels the rest.
func (p *Planner) PlanAll(ctx context.Context, reqs []ProductRequest) ([]Planned, error) {
	out := make([]Planned, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run, err := p.SimulateProduct(ctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", req.ProductKey, err)
			}
			out[i] = Planned{
				RunID:   run.ID,
				Summary: analysis.Summarize(run.Settings, run.Result.Days, run.Result.StockLog),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return analysis.RiskLess(out[i].Summary, out[j].Summary) })
	p.log.Infof("planned %d products", len(out))
	return out, nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidHorizon):
		return "invalid_horizon"
	case errors.Is(err, model.ErrInvalidSettings):
		return "invalid_settings"
	case errors.Is(err, model.ErrEditOrdering):
		return "edit_ordering"
	case errors.Is(err, model.ErrInvalidEdit):
		return "invalid_edit"
	case errors.Is(err, model.ErrUnknownProduct):
		return "unknown_product"
	default:
		return "other"
	}
}
