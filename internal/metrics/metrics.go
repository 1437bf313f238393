// Package metrics records planning activity.
package metrics

import "time"

// SimulationEvent describes one forward run.
type SimulationEvent struct {
	Product     string
	Days        int
	Deliveries  int
	Corrections int
	Unplaced    int
	Duration    time.Duration
}

// RecalcEvent describes one applied edit or reconcile.
type RecalcEvent struct {
	Product  string
	Field    string
	Cascaded int
}

// Sink records planning events for observability purposes.
type Sink interface {
	RecordSimulation(ev SimulationEvent)
	RecordRecalculation(ev RecalcEvent)
	RecordRejection(op, reason string)
}

// NopSink drops everything.
type NopSink struct{}

func (NopSink) RecordSimulation(SimulationEvent) {}
func (NopSink) RecordRecalculation(RecalcEvent)  {}
func (NopSink) RecordRejection(string, string)   {}
