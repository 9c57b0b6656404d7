package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aide-sh/aide/internal/log"
)

// DefaultTimeout bounds a hook invocation when the definition sets none.
const DefaultTimeout = 60 * time.Second

// Runner executes one hook entry as an out-of-process command: JSON context
// on stdin, timeout enforcement, stdout parsed into a structured decision or
// a plain-text note. Every invocation emits exactly one hook_call telemetry
// record. The spawned process is owned exclusively by the invocation, which
// alone terminates it and closes its streams.
type Runner struct {
	sessionID string
	cwd       string
	telemetry Recorder
}

// NewRunner creates a hook runner. A nil recorder defaults to the debug log.
func NewRunner(sessionID, cwd string, telemetry Recorder) *Runner {
	if telemetry == nil {
		telemetry = LogRecorder{}
	}
	return &Runner{
		sessionID: sessionID,
		cwd:       cwd,
		telemetry: telemetry,
	}
}

// Run executes entry's command with input serialized as JSON on stdin. Hook
// failures of any kind are recorded in the result, never returned as errors:
// the dispatcher proceeds with whatever it gathered.
func (r *Runner) Run(ctx context.Context, entry *RegistryEntry, input Input) ExecutionResult {
	input.SessionID = r.sessionID
	input.Cwd = r.cwd
	input.HookEventName = string(entry.EventName)

	result := ExecutionResult{
		EventName: entry.EventName,
		Command:   entry.Definition.Command,
	}

	timeout := DefaultTimeout
	if entry.Definition.Timeout > 0 {
		timeout = time.Duration(entry.Definition.Timeout) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		result.SpawnErr = err
		result.ExitCode = -1
		r.record(result)
		return result
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", entry.Definition.Command)
	cmd.Dir = r.cwd
	cmd.Stdin = bytes.NewReader(inputJSON)
	cmd.Env = r.buildEnv(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)

	switch {
	case runErr == nil:
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The child never started.
			result.SpawnErr = runErr
			result.ExitCode = -1
			log.Logger().Warn("hook spawn failed",
				zap.String("event", string(entry.EventName)),
				zap.String("command", entry.Definition.Command),
				zap.Error(runErr))
		}
	}

	// Timeouts and non-zero exits disable decision interpretation; stderr is
	// retained for diagnostics.
	if result.ExitCode == 0 && !result.TimedOut {
		result.Parsed = parseStdout(strings.TrimSpace(result.Stdout))
	}

	r.record(result)
	return result
}

func (r *Runner) record(res ExecutionResult) {
	r.telemetry.RecordHookCall(HookCallRecord{
		HookEventName: string(res.EventName),
		Command:       res.Command,
		ExitCode:      res.ExitCode,
		DurationMs:    res.Duration.Milliseconds(),
		Stdout:        res.Stdout,
		Stderr:        res.Stderr,
		TimedOut:      res.TimedOut,
	})
}

// buildEnv creates environment variables for the hook command.
func (r *Runner) buildEnv(input Input) []string {
	env := append(os.Environ(),
		"AIDE_PROJECT_DIR="+r.cwd,
		"AIDE_SESSION_ID="+r.sessionID,
		"AIDE_EVENT_NAME="+input.HookEventName,
	)
	if input.ToolName != "" {
		env = append(env, "AIDE_TOOL_NAME="+input.ToolName)
	}
	return env
}

// parseStdout interprets a hook's stdout: a JSON object of the form
// {decision, systemMessage, hookSpecificOutput: {hookEventName,
// additionalContext}} yields a structured decision; anything else becomes a
// plain-text note verbatim. Malformed JSON is not an error; many hooks are
// simple notifiers.
func parseStdout(output string) ParsedOutput {
	if output == "" {
		return ParsedOutput{}
	}

	var raw rawOutput
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		log.Logger().Debug("hook output not valid JSON, treating as note",
			zap.String("output", output))
		return ParsedOutput{Note: output}
	}

	if raw.Decision == "" && raw.SystemMessage == "" && raw.HookSpecificOutput == nil {
		return ParsedOutput{Note: output}
	}

	decision := Decision{
		Action:        raw.Decision,
		SystemMessage: raw.SystemMessage,
	}
	if raw.HookSpecificOutput != nil {
		decision.AdditionalContext = raw.HookSpecificOutput.AdditionalContext
	}
	return ParsedOutput{Decision: &decision}
}
