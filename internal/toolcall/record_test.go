package toolcall

import "testing"

func TestNewRecordStartsValidating(t *testing.T) {
	r := NewRecord("call-1", "Bash", map[string]any{"command": "ls"})
	if r.Status != StatusValidating {
		t.Errorf("status = %v, want validating", r.Status)
	}
}

func TestAdvanceHappyPath(t *testing.T) {
	r := NewRecord("call-1", "Bash", nil)
	for _, next := range []Status{StatusScheduled, StatusExecuting, StatusSuccess} {
		if err := r.Advance(next); err != nil {
			t.Fatalf("Advance(%v): %v", next, err)
		}
	}
	if r.Status != StatusSuccess {
		t.Errorf("final status = %v", r.Status)
	}
}

func TestAdvanceApprovalRoundTrip(t *testing.T) {
	r := NewRecord("call-1", "Edit", nil)
	steps := []Status{
		StatusScheduled,
		StatusAwaitingApproval,
		StatusScheduled, // approval granted, back to the queue
		StatusExecuting,
		StatusSuccess,
	}
	for _, next := range steps {
		if err := r.Advance(next); err != nil {
			t.Fatalf("Advance(%v): %v", next, err)
		}
	}
}

func TestAdvanceRejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
	}{
		{"validating cannot execute directly", StatusValidating, StatusExecuting},
		{"validating cannot await approval", StatusValidating, StatusAwaitingApproval},
		{"awaiting cannot execute directly", StatusAwaitingApproval, StatusExecuting},
		{"executing cannot return to scheduled", StatusExecuting, StatusScheduled},
		{"scheduled cannot regress", StatusScheduled, StatusValidating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord("call-1", "Bash", nil)
			r.Status = tt.from
			if err := r.Advance(tt.to); err == nil {
				t.Errorf("Advance(%v -> %v) should fail", tt.from, tt.to)
			}
		})
	}
}

func TestTerminalIsNeverRevisited(t *testing.T) {
	for _, terminal := range []Status{StatusSuccess, StatusError, StatusCancelled} {
		r := NewRecord("call-1", "Bash", nil)
		r.Status = terminal
		for _, next := range []Status{StatusValidating, StatusScheduled, StatusAwaitingApproval, StatusExecuting, StatusSuccess, StatusError, StatusCancelled} {
			if err := r.Advance(next); err == nil {
				t.Errorf("Advance(%v -> %v) should fail", terminal, next)
			}
		}
		if r.Status != terminal {
			t.Errorf("status mutated from terminal %v to %v", terminal, r.Status)
		}
	}
}

func TestCancelAllowedBeforeTerminal(t *testing.T) {
	for _, from := range []Status{StatusValidating, StatusScheduled, StatusAwaitingApproval, StatusExecuting} {
		r := NewRecord("call-1", "Bash", nil)
		r.Status = from
		if err := r.Advance(StatusCancelled); err != nil {
			t.Errorf("Advance(%v -> cancelled): %v", from, err)
		}
	}
}
