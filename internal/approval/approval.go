// Package approval implements the human-in-the-loop confirmation flow: a
// component wishing to pause for input publishes a correlated request on the
// bus and suspends until the matching response arrives or the enclosing
// operation is cancelled.
package approval

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aide-sh/aide/internal/bus"
	"github.com/aide-sh/aide/internal/log"
)

// Manager pairs outbound confirmation requests with inbound responses via
// correlation id.
type Manager struct {
	bus *bus.Bus
}

// NewManager creates a manager on the given bus.
func NewManager(b *bus.Bus) *Manager {
	return &Manager{bus: b}
}

// ConfirmToolCall publishes a confirmation request for a pending tool call
// and suspends until the matching response arrives or ctx is cancelled.
// Cancellation tears down the subscription synchronously and resolves with a
// cancellation outcome; no response is ever received afterwards. Responses
// carrying other correlation ids are dropped.
func (m *Manager) ConfirmToolCall(ctx context.Context, callID, toolName string, args map[string]any) (bus.ToolConfirmationResponse, error) {
	id := uuid.NewString()
	ch := make(chan bus.ToolConfirmationResponse, 1)

	sub := m.bus.Subscribe(bus.KindToolConfirmationResponse, func(msg bus.Message) {
		resp, ok := msg.(bus.ToolConfirmationResponse)
		if !ok {
			return
		}
		if resp.CorrelationID != id {
			log.Logger().Debug("confirmation response for other correlation id",
				zap.String("got", resp.CorrelationID),
				zap.String("want", id))
			return
		}
		select {
		case ch <- resp:
		default:
		}
	})
	defer m.bus.Unsubscribe(sub)

	m.bus.Publish(bus.ToolConfirmationRequest{
		CorrelationID: id,
		CallID:        callID,
		ToolName:      toolName,
		Args:          args,
	})

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return bus.ToolConfirmationResponse{
			CorrelationID: id,
			Outcome:       bus.ConfirmationCancelled,
		}, ctx.Err()
	}
}

// AskQuestion publishes a free-form question and suspends until the answer
// arrives or ctx is cancelled.
func (m *Manager) AskQuestion(ctx context.Context, question string, options []string) (bus.UserQuestionResponse, error) {
	id := uuid.NewString()
	ch := make(chan bus.UserQuestionResponse, 1)

	sub := m.bus.Subscribe(bus.KindUserQuestionResponse, func(msg bus.Message) {
		resp, ok := msg.(bus.UserQuestionResponse)
		if !ok || resp.CorrelationID != id {
			return
		}
		select {
		case ch <- resp:
		default:
		}
	})
	defer m.bus.Unsubscribe(sub)

	m.bus.Publish(bus.UserQuestionRequest{
		CorrelationID: id,
		Question:      question,
		Options:       options,
	})

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return bus.UserQuestionResponse{
			CorrelationID: id,
			Cancelled:     true,
		}, ctx.Err()
	}
}
