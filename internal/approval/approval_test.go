package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aide-sh/aide/internal/bus"
)

// autoResponder answers every confirmation request on the bus with the given
// outcome, the way a terminal prompt would.
func autoResponder(b *bus.Bus, outcome bus.ConfirmationOutcome, approveAll bool) {
	b.Subscribe(bus.KindToolConfirmationRequest, func(msg bus.Message) {
		req, ok := msg.(bus.ToolConfirmationRequest)
		if !ok {
			return
		}
		b.Publish(bus.ToolConfirmationResponse{
			CorrelationID: req.CorrelationID,
			Outcome:       outcome,
			ApproveAll:    approveAll,
		})
	})
}

func TestConfirmToolCallApproved(t *testing.T) {
	b := bus.New()
	autoResponder(b, bus.ConfirmationApproved, false)

	m := NewManager(b)
	resp, err := m.ConfirmToolCall(context.Background(), "call-1", "Bash", map[string]any{"command": "ls"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Outcome != bus.ConfirmationApproved {
		t.Errorf("outcome = %v, want approved", resp.Outcome)
	}

	// The waiter's subscription is gone once the call resolves.
	if n := b.SubscriberCount(bus.KindToolConfirmationResponse); n != 0 {
		t.Errorf("%d confirmation subscribers left after resolution", n)
	}
}

func TestConfirmToolCallApproveAll(t *testing.T) {
	b := bus.New()
	autoResponder(b, bus.ConfirmationApproved, true)

	m := NewManager(b)
	resp, err := m.ConfirmToolCall(context.Background(), "call-1", "Edit", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.ApproveAll {
		t.Error("ApproveAll should carry through")
	}
}

func TestConfirmToolCallCancellation(t *testing.T) {
	b := bus.New()
	// No responder: the request stays pending until the context ends.

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	m := NewManager(b)
	resp, err := m.ConfirmToolCall(ctx, "call-1", "Bash", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if resp.Outcome != bus.ConfirmationCancelled {
		t.Errorf("outcome = %v, want cancelled", resp.Outcome)
	}
	if n := b.SubscriberCount(bus.KindToolConfirmationResponse); n != 0 {
		t.Errorf("%d confirmation subscribers left after cancellation", n)
	}
}

func TestConfirmToolCallIgnoresOtherCorrelations(t *testing.T) {
	b := bus.New()

	// Answer with a stale correlation first, then the real one.
	b.Subscribe(bus.KindToolConfirmationRequest, func(msg bus.Message) {
		req, ok := msg.(bus.ToolConfirmationRequest)
		if !ok {
			return
		}
		b.Publish(bus.ToolConfirmationResponse{
			CorrelationID: "stale-id",
			Outcome:       bus.ConfirmationDenied,
		})
		b.Publish(bus.ToolConfirmationResponse{
			CorrelationID: req.CorrelationID,
			Outcome:       bus.ConfirmationApproved,
		})
	})

	m := NewManager(b)
	resp, err := m.ConfirmToolCall(context.Background(), "call-1", "Bash", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Outcome != bus.ConfirmationApproved {
		t.Errorf("stale correlation must not resolve the wait, got %v", resp.Outcome)
	}
}

func TestAskQuestionAnswered(t *testing.T) {
	b := bus.New()
	b.Subscribe(bus.KindUserQuestionRequest, func(msg bus.Message) {
		req, ok := msg.(bus.UserQuestionRequest)
		if !ok {
			return
		}
		if req.Question != "proceed?" || len(req.Options) != 2 {
			return
		}
		b.Publish(bus.UserQuestionResponse{
			CorrelationID: req.CorrelationID,
			Answer:        "yes",
		})
	})

	m := NewManager(b)
	resp, err := m.AskQuestion(context.Background(), "proceed?", []string{"yes", "no"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "yes" || resp.Cancelled {
		t.Errorf("unexpected answer: %+v", resp)
	}
	if n := b.SubscriberCount(bus.KindUserQuestionResponse); n != 0 {
		t.Errorf("%d question subscribers left after resolution", n)
	}
}

func TestAskQuestionCancellation(t *testing.T) {
	b := bus.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager(b)
	resp, err := m.AskQuestion(ctx, "proceed?", nil)
	if err == nil {
		t.Fatal("expected an error from an already-cancelled context")
	}
	if !resp.Cancelled {
		t.Error("response should be marked cancelled")
	}
}

func TestSequentialConfirmationsGetDistinctIDs(t *testing.T) {
	b := bus.New()

	var seen []string
	b.Subscribe(bus.KindToolConfirmationRequest, func(msg bus.Message) {
		req, ok := msg.(bus.ToolConfirmationRequest)
		if !ok {
			return
		}
		seen = append(seen, req.CorrelationID)
		b.Publish(bus.ToolConfirmationResponse{
			CorrelationID: req.CorrelationID,
			Outcome:       bus.ConfirmationApproved,
		})
	})

	m := NewManager(b)
	for i := 0; i < 3; i++ {
		if _, err := m.ConfirmToolCall(context.Background(), "call", "Bash", nil); err != nil {
			t.Fatal(err)
		}
	}

	ids := make(map[string]bool)
	for _, id := range seen {
		ids[id] = true
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 distinct correlation ids, got %v", seen)
	}
}
