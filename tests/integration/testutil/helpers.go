// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aide-sh/aide/internal/approval"
	"github.com/aide-sh/aide/internal/bus"
	"github.com/aide-sh/aide/internal/client"
	"github.com/aide-sh/aide/internal/config"
	"github.com/aide-sh/aide/internal/core"
	"github.com/aide-sh/aide/internal/hooks"
	"github.com/aide-sh/aide/internal/toolcall"
)

// ---------------------------------------------------------------------------
// Loader and registry construction
// ---------------------------------------------------------------------------

// NewLoader creates a config loader backed by throwaway directories and
// persists the given settings into the user scope.
func NewLoader(t *testing.T, settings *config.Settings) *config.Loader {
	t.Helper()

	tmp := t.TempDir()
	userDir := filepath.Join(tmp, "user")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(settings)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(userDir, "settings.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
	return config.NewLoaderWithDirs(filepath.Join(tmp, "system.json"), userDir, filepath.Join(tmp, "project"))
}

// NewDispatcher builds an initialized registry, runner, and dispatcher around
// settings, all wired to b. The runner records into the returned recorder.
func NewDispatcher(t *testing.T, settings *config.Settings, b *bus.Bus) (*hooks.Dispatcher, *hooks.MemoryRecorder) {
	t.Helper()

	registry := hooks.NewRegistry(NewLoader(t, settings))
	if err := registry.Initialize(); err != nil {
		t.Fatal(err)
	}
	recorder := &hooks.MemoryRecorder{}
	runner := hooks.NewRunner("integration-session", t.TempDir(), recorder)
	return hooks.NewDispatcher(registry, runner, b), recorder
}

// ---------------------------------------------------------------------------
// Loop construction
// ---------------------------------------------------------------------------

// NewLoop assembles a full core.Loop around a scripted client. Responses are
// returned in queue order.
func NewLoop(t *testing.T, settings *config.Settings, responses ...client.Response) (*core.Loop, *bus.Bus, *client.Fake) {
	t.Helper()

	b := bus.New()
	dispatcher, _ := NewDispatcher(t, settings, b)
	fake := &client.Fake{Responses: responses}

	loop := &core.Loop{
		Client:     fake,
		Bus:        b,
		Dispatcher: dispatcher,
		Aggregator: toolcall.NewAggregator(b),
		Approval:   approval.NewManager(b),
		Settings:   settings,
		Tools:      map[string]core.ToolFunc{},
	}
	return loop, b, fake
}

// ---------------------------------------------------------------------------
// Response builders
// ---------------------------------------------------------------------------

// ToolCallResponse builds a completion that requests a single tool call.
func ToolCallResponse(toolName, callID string, args map[string]any) client.Response {
	return client.Response{
		ToolCalls: []client.ToolCall{{ID: callID, Name: toolName, Args: args}},
	}
}

// EndTurnResponse builds a plain text completion.
func EndTurnResponse(content string) client.Response {
	return client.Response{Content: content}
}

// ---------------------------------------------------------------------------
// Bus responders
// ---------------------------------------------------------------------------

// AutoApprove answers every confirmation request affirmatively and counts the
// requests seen.
func AutoApprove(b *bus.Bus) *int {
	count := new(int)
	b.Subscribe(bus.KindToolConfirmationRequest, func(msg bus.Message) {
		req, ok := msg.(bus.ToolConfirmationRequest)
		if !ok {
			return
		}
		*count++
		b.Publish(bus.ToolConfirmationResponse{
			CorrelationID: req.CorrelationID,
			Outcome:       bus.ConfirmationApproved,
		})
	})
	return count
}

// AutoDeny answers every confirmation request negatively.
func AutoDeny(b *bus.Bus) {
	b.Subscribe(bus.KindToolConfirmationRequest, func(msg bus.Message) {
		req, ok := msg.(bus.ToolConfirmationRequest)
		if !ok {
			return
		}
		b.Publish(bus.ToolConfirmationResponse{
			CorrelationID: req.CorrelationID,
			Outcome:       bus.ConfirmationDenied,
		})
	})
}

// CollectTaskStatuses appends every task status update into the returned
// slice pointer.
func CollectTaskStatuses(b *bus.Bus) *[]bus.TaskStatusUpdate {
	out := new([]bus.TaskStatusUpdate)
	b.Subscribe(bus.KindTaskStatusUpdate, func(msg bus.Message) {
		if u, ok := msg.(bus.TaskStatusUpdate); ok {
			*out = append(*out, u)
		}
	})
	return out
}
