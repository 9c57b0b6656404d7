// Package hooks implements the lifecycle hook system for Aide: externally
// configured shell commands invoked at named points of a conversation turn
// to observe or influence agent behavior.
package hooks

import (
	"time"

	"github.com/aide-sh/aide/internal/config"
)

// EventType represents the type of hook event.
type EventType string

// Event types with their matcher support noted.
const (
	SessionStart EventType = "SessionStart" // no matcher
	SessionEnd   EventType = "SessionEnd"   // no matcher
	BeforeAgent  EventType = "BeforeAgent"  // no matcher
	AfterAgent   EventType = "AfterAgent"   // no matcher
	BeforeTool   EventType = "BeforeTool"   // matcher: tool name
	AfterTool    EventType = "AfterTool"    // matcher: tool name
)

// EventTypes lists all known events in a stable order.
var EventTypes = []EventType{
	SessionStart, SessionEnd, BeforeAgent, AfterAgent, BeforeTool, AfterTool,
}

// KnownEvent reports whether name is a recognized event type.
func KnownEvent(name string) bool {
	for _, e := range EventTypes {
		if string(e) == name {
			return true
		}
	}
	return false
}

// Definition is one hook command as configured. Immutable once loaded.
type Definition struct {
	// Command is the shell command to execute.
	Command string

	// Timeout bounds one invocation, in milliseconds. Zero means default.
	Timeout int

	// FriendlyName is an optional display name. Unnamed hooks are
	// identified by their command string.
	FriendlyName string
}

// Name returns the identity used for enable/disable bookkeeping.
func (d Definition) Name() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.Command
}

// RegistryEntry is one definition registered for one event, with provenance
// and runtime enabled state.
type RegistryEntry struct {
	Definition Definition
	EventName  EventType
	Source     config.Scope
	Matcher    string
	Sequential bool
	Enabled    bool
}

// Name returns the entry's hook name.
func (e *RegistryEntry) Name() string { return e.Definition.Name() }

// Input is the JSON payload passed to hook commands via stdin. Fields are
// event-specific; unused fields are omitted.
type Input struct {
	// Common fields
	SessionID     string `json:"session_id"`
	Cwd           string `json:"cwd"`
	HookEventName string `json:"hook_event_name"`

	// BeforeAgent: the pending user message. AfterAgent: the prompt that
	// started the turn plus the agent's final response.
	UserMessage   string `json:"user_message,omitempty"`
	Prompt        string `json:"prompt,omitempty"`
	FinalResponse string `json:"final_response,omitempty"`

	// Tool events
	ToolName     string         `json:"tool_name,omitempty"`
	ToolInput    map[string]any `json:"tool_input,omitempty"`
	ToolUseID    string         `json:"tool_use_id,omitempty"`
	ToolResponse string         `json:"tool_response,omitempty"`
	ToolError    string         `json:"tool_error,omitempty"`

	// Session events
	Source string `json:"source,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// rawOutput is the structured JSON shape a hook may print on stdout.
type rawOutput struct {
	Decision           string             `json:"decision,omitempty"`
	SystemMessage      string             `json:"systemMessage,omitempty"`
	HookSpecificOutput *rawSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

type rawSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// Decision is a hook's structured verdict.
type Decision struct {
	// Action is "allow" or "deny".
	Action string

	// AdditionalContext is injected into the conversation.
	AdditionalContext string

	// SystemMessage is surfaced to the user.
	SystemMessage string
}

// Deny reports whether the decision blocks the surrounding operation.
func (d Decision) Deny() bool { return d.Action == "deny" }

// ParsedOutput is the result of interpreting a hook's stdout: either a
// structured decision or a plain-text note, never both.
type ParsedOutput struct {
	Decision *Decision
	Note     string
}

// ExecutionResult records one hook invocation. Created once per run,
// immutable afterwards.
type ExecutionResult struct {
	EventName EventType
	Command   string
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
	TimedOut  bool

	// SpawnErr is set when the child process could not be started.
	SpawnErr error

	// Parsed is the interpreted stdout. Only meaningful on exit code 0.
	Parsed ParsedOutput
}

// Outcome is the merged result of firing one hook set. Built incrementally
// per group, discarded after consumption.
type Outcome struct {
	// SystemMessage is every hook's plain-text note and system message,
	// newline-joined in registration order.
	SystemMessage string

	// AdditionalContext is each structured decision's context, concatenated
	// in registration order.
	AdditionalContext string

	// Decisions holds structured verdicts in registration order.
	Decisions []Decision
}

// Blocked returns the first deny decision, if any. When multiple hooks in a
// group disagree, deny wins.
func (o Outcome) Blocked() (Decision, bool) {
	for _, d := range o.Decisions {
		if d.Deny() {
			return d, true
		}
	}
	return Decision{}, false
}

// append merges one execution result into the outcome, preserving
// registration order across calls.
func (o *Outcome) append(res ExecutionResult) {
	if res.Parsed.Decision != nil {
		d := *res.Parsed.Decision
		o.Decisions = append(o.Decisions, d)
		o.AdditionalContext = joinWith(o.AdditionalContext, d.AdditionalContext, "\n")
		o.SystemMessage = joinWith(o.SystemMessage, d.SystemMessage, "\n")
	}
	if res.Parsed.Note != "" {
		o.SystemMessage = joinWith(o.SystemMessage, res.Parsed.Note, "\n")
	}
}

// joinWith joins a and b with sep, skipping empty sides.
func joinWith(a, b, sep string) string {
	if b == "" {
		return a
	}
	if a == "" {
		return b
	}
	return a + sep + b
}
