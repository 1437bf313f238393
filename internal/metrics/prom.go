package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	simulations *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	corrections *prometheus.CounterVec
	unplaced    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	recalcs     *prometheus.CounterVec
	cascaded    *prometheus.HistogramVec
	rejections  *prometheus.CounterVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer defaults
// to the global one. Metrics already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "silo_simulations_total",
			Help: "Total number of forward simulations",
		}, []string{"product"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "silo_deliveries_planned_total",
			Help: "Deliveries booked by forward simulations",
		}, []string{"product"}),
		corrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "silo_lookahead_corrections_total",
			Help: "Deliveries inserted by the evening look-ahead",
		}, []string{"product"}),
		unplaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "silo_lookahead_unplaced_total",
			Help: "Look-ahead corrections that found no free slot",
		}, []string{"product"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "silo_simulation_duration_seconds",
			Help:    "Wall time of one forward simulation",
			Buckets: prometheus.DefBuckets,
		}, []string{"product"}),
		recalcs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "silo_recalculations_total",
			Help: "Applied schedule edits by field",
		}, []string{"product", "field"}),
		cascaded: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "silo_cascaded_days",
			Help:    "Days shifted by one recalculation",
			Buckets: []float64{0, 1, 7, 30, 90, 180, 366},
		}, []string{"product"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "silo_rejections_total",
			Help: "Requests rejected by validation",
		}, []string{"op", "reason"}),
	}

	var err error
	if s.simulations, err = registerCounter(reg, s.simulations); err != nil {
		return nil, err
	}
	if s.deliveries, err = registerCounter(reg, s.deliveries); err != nil {
		return nil, err
	}
	if s.corrections, err = registerCounter(reg, s.corrections); err != nil {
		return nil, err
	}
	if s.unplaced, err = registerCounter(reg, s.unplaced); err != nil {
		return nil, err
	}
	if s.recalcs, err = registerCounter(reg, s.recalcs); err != nil {
		return nil, err
	}
	if s.rejections, err = registerCounter(reg, s.rejections); err != nil {
		return nil, err
	}
	if s.duration, err = registerHistogram(reg, s.duration); err != nil {
		return nil, err
	}
	if s.cascaded, err = registerHistogram(reg, s.cascaded); err != nil {
		return nil, err
	}
	return s, nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec), nil
		}
		return nil, err
	}
	return h, nil
}

func (s *PromSink) RecordSimulation(ev SimulationEvent) {
	s.simulations.WithLabelValues(ev.Product).Inc()
	s.deliveries.WithLabelValues(ev.Product).Add(float64(ev.Deliveries))
	s.corrections.WithLabelValues(ev.Product).Add(float64(ev.Corrections))
	s.unplaced.WithLabelValues(ev.Product).Add(float64(ev.Unplaced))
	s.duration.WithLabelValues(ev.Product).Observe(ev.Duration.Seconds())
}

func (s *PromSink) RecordRecalculation(ev RecalcEvent) {
	s.recalcs.WithLabelValues(ev.Product, ev.Field).Inc()
	s.cascaded.WithLabelValues(ev.Product).Observe(float64(ev.Cascaded))
}

func (s *PromSink) RecordRejection(op, reason string) {
	s.rejections.WithLabelValues(op, reason).Inc()
}
