// Package toolcall tracks the tool calls raised during one conversation
// turn and derives a single task-level status from the evolving set.
package toolcall

import "fmt"

// Status is a tool call's lifecycle state.
type Status string

const (
	StatusValidating       Status = "validating"
	StatusScheduled        Status = "scheduled"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusExecuting        Status = "executing"
	StatusSuccess          Status = "success"
	StatusError            Status = "error"
	StatusCancelled        Status = "cancelled"
)

// Terminal reports whether the status can never change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusError, StatusCancelled:
		return true
	}
	return false
}

// validNext defines the allowed forward transitions. A status advances
// monotonically along validating -> scheduled -> {awaiting_approval ->
// scheduled}* -> executing -> {success|error|cancelled}; a terminal status
// is never revisited.
var validNext = map[Status]map[Status]bool{
	StatusValidating: {
		StatusScheduled: true,
		StatusError:     true,
		StatusCancelled: true,
	},
	StatusScheduled: {
		StatusAwaitingApproval: true,
		StatusExecuting:        true,
		StatusError:            true,
		StatusCancelled:        true,
	},
	StatusAwaitingApproval: {
		StatusScheduled: true,
		StatusError:     true,
		StatusCancelled: true,
	},
	StatusExecuting: {
		StatusSuccess:   true,
		StatusError:     true,
		StatusCancelled: true,
	},
}

// Record is one tool call's coordination state for the current turn. Created
// when the model requests the call, discarded when the batch resolves.
type Record struct {
	CallID        string
	Name          string
	Args          map[string]any
	Status        Status
	CorrelationID string
}

// NewRecord creates a record in the validating state.
func NewRecord(callID, name string, args map[string]any) *Record {
	return &Record{
		CallID: callID,
		Name:   name,
		Args:   args,
		Status: StatusValidating,
	}
}

// Advance moves the record to the next status, enforcing monotonic
// progression.
func (r *Record) Advance(next Status) error {
	if r.Status.Terminal() {
		return fmt.Errorf("tool call %s: status %s is terminal", r.CallID, r.Status)
	}
	if !validNext[r.Status][next] {
		return fmt.Errorf("tool call %s: invalid transition %s -> %s", r.CallID, r.Status, next)
	}
	r.Status = next
	return nil
}
