package toolcall

import (
	"go.uber.org/zap"

	"github.com/aide-sh/aide/internal/bus"
	"github.com/aide-sh/aide/internal/log"
)

// Task-level statuses derived from a snapshot of tool-call records.
const (
	TaskWorking       = "working"
	TaskInputRequired = "input-required"
)

// Aggregator reduces the evolving set of tool-call statuses in a turn into
// one task-level status. Recomputation always considers the full current
// snapshot, since the aggregate is a property of the whole set; only
// externally visible changes publish a status update.
type Aggregator struct {
	bus *bus.Bus

	lastStatus string
	lastFinal  bool

	// skipFinal suppresses final=true for one transition, used when an
	// approval was resolved out-of-band by an inline edit.
	skipFinal bool
}

// NewAggregator creates an aggregator publishing on b.
func NewAggregator(b *bus.Bus) *Aggregator {
	return &Aggregator{bus: b}
}

// SkipNextFinal arms the latch that downgrades the next final=true
// derivation to a non-final update.
func (a *Aggregator) SkipNextFinal() {
	a.skipFinal = true
}

// OnUpdate receives a snapshot of all tool-call records active in the turn,
// publishes the raw snapshot, and derives the task status:
//
//   - input-required (final) iff at least one record awaits approval and
//     none is executing
//   - working if any record is executing, scheduled, or validating
//   - otherwise unchanged
func (a *Aggregator) OnUpdate(records []*Record) {
	if a.bus != nil {
		statuses := make([]bus.ToolCallStatus, 0, len(records))
		for _, r := range records {
			statuses = append(statuses, bus.ToolCallStatus{
				CallID: r.CallID,
				Name:   r.Name,
				Status: string(r.Status),
			})
		}
		a.bus.Publish(bus.ToolCallsUpdate{Records: statuses})
	}

	var awaiting, executing, working bool
	for _, r := range records {
		switch r.Status {
		case StatusAwaitingApproval:
			awaiting = true
		case StatusExecuting:
			executing = true
			working = true
		case StatusScheduled, StatusValidating:
			working = true
		}
	}

	var status string
	var final bool
	switch {
	case awaiting && !executing:
		status = TaskInputRequired
		final = true
	case working:
		status = TaskWorking
	default:
		return // aggregate unchanged by this snapshot
	}

	if final && a.skipFinal {
		a.skipFinal = false
		final = false
	}

	if status == a.lastStatus && final == a.lastFinal {
		return // no-op recomputation, suppress
	}
	a.lastStatus = status
	a.lastFinal = final

	log.Logger().Debug("task status derived",
		zap.String("status", status),
		zap.Bool("final", final),
		zap.Int("records", len(records)))

	if a.bus != nil {
		a.bus.Publish(bus.TaskStatusUpdate{Status: status, Final: final})
	}
}

// Reset clears the derived state between turns.
func (a *Aggregator) Reset() {
	a.lastStatus = ""
	a.lastFinal = false
	a.skipFinal = false
}
