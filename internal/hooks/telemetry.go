package hooks

import (
	"sync"

	"go.uber.org/zap"

	"github.com/aide-sh/aide/internal/log"
)

// HookCallRecord is the telemetry payload emitted once per hook invocation.
// It is the external audit trail for exactly-once firing.
type HookCallRecord struct {
	HookEventName string `json:"hook_event_name"`
	Command       string `json:"command"`
	ExitCode      int    `json:"exit_code"`
	DurationMs    int64  `json:"duration_ms"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	TimedOut      bool   `json:"timed_out,omitempty"`
}

// Recorder receives one record per hook invocation.
type Recorder interface {
	RecordHookCall(rec HookCallRecord)
}

// LogRecorder writes hook_call events to the debug log.
type LogRecorder struct{}

func (LogRecorder) RecordHookCall(rec HookCallRecord) {
	log.Logger().Info("hook_call",
		zap.String("hook_event_name", rec.HookEventName),
		zap.String("command", rec.Command),
		zap.Int("exit_code", rec.ExitCode),
		zap.Int64("duration_ms", rec.DurationMs),
		zap.String("stdout", rec.Stdout),
		zap.String("stderr", rec.Stderr),
		zap.Bool("timed_out", rec.TimedOut),
	)
}

// MemoryRecorder collects records in memory, used by tests.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []HookCallRecord
}

func (m *MemoryRecorder) RecordHookCall(rec HookCallRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

// Records returns a copy of the collected records.
func (m *MemoryRecorder) Records() []HookCallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]HookCallRecord(nil), m.records...)
}
