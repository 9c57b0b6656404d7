package hooks_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/aide-sh/aide/internal/bus"
	"github.com/aide-sh/aide/internal/config"
	"github.com/aide-sh/aide/tests/integration/testutil"
)

func TestHooks_BlockToolCall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on windows (no sh)")
	}

	settings := config.NewSettings()
	settings.Hooks.Events["BeforeTool"] = []config.HookGroup{
		{
			Matcher: "Bash",
			Hooks: []config.HookCmd{
				{Type: "command", Command: `echo '{"decision": "deny", "systemMessage": "blocked"}'`},
			},
		},
	}

	dispatcher, _ := testutil.NewDispatcher(t, settings, nil)

	outcome := dispatcher.RunBeforeTool(context.Background(), "tc1", "Bash", map[string]any{"command": "ls"})

	decision, blocked := outcome.Blocked()
	if !blocked {
		t.Fatal("expected hook to block execution")
	}
	if decision.SystemMessage != "blocked" {
		t.Errorf("block reason = %q", decision.SystemMessage)
	}
}

func TestHooks_MatcherSkipsOtherTools(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on windows (no sh)")
	}

	settings := config.NewSettings()
	settings.Hooks.Events["BeforeTool"] = []config.HookGroup{
		{
			Matcher: "Bash",
			Hooks: []config.HookCmd{
				{Type: "command", Command: `echo '{"decision": "deny"}'`},
			},
		},
	}

	dispatcher, recorder := testutil.NewDispatcher(t, settings, nil)

	outcome := dispatcher.RunBeforeTool(context.Background(), "tc1", "Read", map[string]any{"file_path": "/tmp/x"})

	if _, blocked := outcome.Blocked(); blocked {
		t.Error("Read should not match a Bash-scoped hook")
	}
	if len(recorder.Records()) != 0 {
		t.Errorf("no hook should have run, got %d telemetry records", len(recorder.Records()))
	}
}

func TestHooks_NoHooks_PassThrough(t *testing.T) {
	dispatcher, _ := testutil.NewDispatcher(t, config.NewSettings(), nil)

	outcome := dispatcher.RunBeforeTool(context.Background(), "tc1", "Read", map[string]any{"file_path": "/test"})

	if _, blocked := outcome.Blocked(); blocked {
		t.Error("no hooks should mean no blocking")
	}
	if outcome.SystemMessage != "" || outcome.AdditionalContext != "" {
		t.Errorf("empty hook set produced output: %+v", outcome)
	}
}

func TestHooks_TelemetryPerInvocation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on windows (no sh)")
	}

	settings := config.NewSettings()
	settings.Hooks.Events["AfterTool"] = []config.HookGroup{
		{Hooks: []config.HookCmd{
			{Type: "command", Command: "echo one"},
			{Type: "command", Command: "echo two; exit 3"},
		}},
	}

	dispatcher, recorder := testutil.NewDispatcher(t, settings, nil)

	dispatcher.RunAfterTool(context.Background(), "tc1", "Edit", nil, "ok", "")

	records := recorder.Records()
	if len(records) != 2 {
		t.Fatalf("expected one record per hook, got %d", len(records))
	}
	var sawFailure bool
	for _, r := range records {
		if r.ExitCode == 3 {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Error("failing hook's exit code not recorded")
	}
}

func TestHooks_DisabledHookSkipped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on windows (no sh)")
	}

	settings := config.NewSettings()
	settings.Hooks.Events["BeforeTool"] = []config.HookGroup{
		{Hooks: []config.HookCmd{
			{Type: "command", Name: "gate", Command: `echo '{"decision": "deny"}'`},
		}},
	}
	settings.Hooks.Disabled = []string{"gate"}

	dispatcher, recorder := testutil.NewDispatcher(t, settings, nil)

	outcome := dispatcher.RunBeforeTool(context.Background(), "tc1", "Bash", nil)
	if _, blocked := outcome.Blocked(); blocked {
		t.Error("disabled hook must not block")
	}
	if len(recorder.Records()) != 0 {
		t.Error("disabled hook must not run")
	}
}

func TestHooks_SessionLifecycle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on windows (no sh)")
	}

	settings := config.NewSettings()
	settings.Hooks.Events["SessionStart"] = []config.HookGroup{
		{Hooks: []config.HookCmd{{Type: "command", Command: "echo session up"}}},
	}
	settings.Hooks.Events["SessionEnd"] = []config.HookGroup{
		{Hooks: []config.HookCmd{{Type: "command", Command: "echo session down"}}},
	}

	dispatcher, _ := testutil.NewDispatcher(t, settings, nil)

	start := dispatcher.RunSessionStart(context.Background(), "startup")
	if start.SystemMessage != "session up" {
		t.Errorf("session start message = %q", start.SystemMessage)
	}

	end := dispatcher.RunSessionEnd(context.Background(), "exit")
	if end.SystemMessage != "session down" {
		t.Errorf("session end message = %q", end.SystemMessage)
	}
}

func TestHooks_PolicyDecisionOnBus(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping on windows (no sh)")
	}

	b := bus.New()
	var decisions []bus.HookPolicyDecision
	b.Subscribe(bus.KindHookPolicyDecision, func(msg bus.Message) {
		if d, ok := msg.(bus.HookPolicyDecision); ok {
			decisions = append(decisions, d)
		}
	})

	settings := config.NewSettings()
	settings.Hooks.Events["BeforeTool"] = []config.HookGroup{
		{Hooks: []config.HookCmd{
			{Type: "command", Command: `echo '{"decision": "allow"}'`},
		}},
	}

	dispatcher, _ := testutil.NewDispatcher(t, settings, b)
	dispatcher.RunBeforeTool(context.Background(), "tc1", "Bash", nil)

	if len(decisions) != 1 || decisions[0].Action != "allow" {
		t.Errorf("published decisions = %+v", decisions)
	}
}
