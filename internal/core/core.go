// Package core provides the agent turn runtime: it drives the model loop,
// bounds each turn with lifecycle hooks, and routes tool calls through
// permission checks and the confirmation flow before executing them.
package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aide-sh/aide/internal/approval"
	"github.com/aide-sh/aide/internal/bus"
	"github.com/aide-sh/aide/internal/client"
	"github.com/aide-sh/aide/internal/config"
	"github.com/aide-sh/aide/internal/hooks"
	"github.com/aide-sh/aide/internal/log"
	"github.com/aide-sh/aide/internal/toolcall"
)

const defaultMaxRounds = 50

// ToolFunc executes one tool call and returns its output.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Result is returned by Loop.RunTurn upon completion.
type Result struct {
	Content    string
	Rounds     int
	StopReason string // "end_turn", "max_rounds", "cancelled", "hook_blocked"

	// SystemMessage collects hook notices surfaced during the turn.
	SystemMessage string
}

// Loop is the turn runtime. One Loop holds one conversation.
type Loop struct {
	Client     client.Client
	Bus        *bus.Bus
	Dispatcher *hooks.Dispatcher
	Aggregator *toolcall.Aggregator
	Approval   *approval.Manager
	Settings   *config.Settings
	Tools      map[string]ToolFunc

	SystemPrompt string
	MaxRounds    int

	messages []client.Message

	// sessionAllowed holds tools approved for the whole session via
	// "approve all" confirmation responses.
	sessionAllowed map[string]bool
}

// Messages returns the current conversation messages.
func (l *Loop) Messages() []client.Message {
	return l.messages
}

// SetMessages replaces the conversation messages.
func (l *Loop) SetMessages(msgs []client.Message) {
	l.messages = msgs
}

// RunTurn drives one full turn: turn-start hooks, the model round-trip loop
// with tool execution, and turn-end hooks. Turn-start and turn-end hook sets
// each fire exactly once regardless of how many tool rounds occur; the
// turn-end set fires even when the turn is cancelled mid-flight.
func (l *Loop) RunTurn(ctx context.Context, userMessage string) (*Result, error) {
	startOutcome, err := l.Dispatcher.BeginTurn(ctx, userMessage)
	if err != nil {
		return nil, err
	}

	result := &Result{SystemMessage: startOutcome.SystemMessage}
	defer func() {
		// Turn-end hooks fire once even on cancellation or error.
		endCtx := context.WithoutCancel(ctx)
		if _, err := l.Dispatcher.EndTurn(endCtx, userMessage, result.Content); err != nil {
			log.Logger().Warn("turn end hooks skipped", zap.Error(err))
		}
	}()

	if d, blocked := startOutcome.Blocked(); blocked {
		result.StopReason = "hook_blocked"
		result.Content = d.SystemMessage
		return result, nil
	}

	prompt := userMessage
	if startOutcome.AdditionalContext != "" {
		prompt = prompt + "\n\n" + startOutcome.AdditionalContext
	}
	l.messages = append(l.messages, client.UserMessage(prompt))

	maxRounds := l.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	for round := 0; round < maxRounds; round++ {
		if ctx.Err() != nil {
			result.Rounds = round
			result.StopReason = "cancelled"
			return result, ctx.Err()
		}

		resp, err := l.Client.Complete(ctx, l.SystemPrompt, l.messages)
		if err != nil {
			result.Rounds = round
			return result, err
		}

		l.messages = append(l.messages, client.AssistantMessage(resp.Content, resp.ToolCalls))

		if len(resp.ToolCalls) == 0 {
			result.Content = resp.Content
			result.Rounds = round + 1
			result.StopReason = "end_turn"
			return result, nil
		}

		results, cancelled := l.execBatch(ctx, resp.ToolCalls)
		l.messages = append(l.messages, client.ToolResultsMessage(results))
		if cancelled {
			result.Rounds = round + 1
			result.StopReason = "cancelled"
			return result, ctx.Err()
		}
	}

	result.Rounds = maxRounds
	result.StopReason = "max_rounds"
	return result, nil
}

// execBatch runs one round's tool calls in order. Each call passes through
// BeforeTool hooks, the permission rules, and, when required, the
// confirmation flow before executing, then fires AfterTool hooks. Tool-call
// records are re-aggregated after every status change.
func (l *Loop) execBatch(ctx context.Context, calls []client.ToolCall) (results []client.ToolResult, cancelled bool) {
	records := make([]*toolcall.Record, len(calls))
	for i, tc := range calls {
		records[i] = toolcall.NewRecord(tc.ID, tc.Name, tc.Args)
	}
	l.Aggregator.OnUpdate(records)

	for i, tc := range calls {
		rec := records[i]

		if ctx.Err() != nil {
			l.cancelRemaining(records[i:])
			for _, rest := range calls[i:] {
				results = append(results, errorResult(rest, "cancelled"))
			}
			return results, true
		}

		l.advance(rec, toolcall.StatusScheduled, records)

		hookOutcome := l.Dispatcher.RunBeforeTool(ctx, tc.ID, tc.Name, tc.Args)
		if d, blocked := hookOutcome.Blocked(); blocked {
			reason := d.SystemMessage
			if reason == "" {
				reason = "blocked by hook"
			}
			l.advance(rec, toolcall.StatusError, records)
			results = append(results, errorResult(tc, "Blocked by hook: "+reason))
			continue
		}

		outcome, res, ok := l.confirmIfNeeded(ctx, tc, rec, records)
		if !ok {
			results = append(results, res)
			if outcome == bus.ConfirmationCancelled {
				l.cancelRemaining(records[i+1:])
				for _, rest := range calls[i+1:] {
					results = append(results, errorResult(rest, "cancelled"))
				}
				return results, true
			}
			continue
		}

		l.advance(rec, toolcall.StatusExecuting, records)
		result := l.runTool(ctx, tc)
		if result.IsError {
			l.advance(rec, toolcall.StatusError, records)
			l.Bus.Publish(bus.ToolExecutionFailure{CallID: tc.ID, ToolName: tc.Name, Error: result.Content})
		} else {
			l.advance(rec, toolcall.StatusSuccess, records)
			l.Bus.Publish(bus.ToolExecutionSuccess{CallID: tc.ID, ToolName: tc.Name, Result: result.Content})
		}
		results = append(results, result)

		l.Dispatcher.RunAfterTool(ctx, tc.ID, tc.Name, tc.Args, result.Content, toolErrText(result))
	}

	return results, false
}

// confirmIfNeeded applies permission rules and, for ask-tier calls, suspends
// on the confirmation flow. ok is true when the call may execute.
func (l *Loop) confirmIfNeeded(ctx context.Context, tc client.ToolCall, rec *toolcall.Record, records []*toolcall.Record) (bus.ConfirmationOutcome, client.ToolResult, bool) {
	if l.sessionAllowed[tc.Name] {
		return bus.ConfirmationApproved, client.ToolResult{}, true
	}

	switch l.Settings.CheckPermission(tc.Name, tc.Args) {
	case config.PermissionAllow:
		return bus.ConfirmationApproved, client.ToolResult{}, true

	case config.PermissionDeny:
		l.Bus.Publish(bus.PolicyRejection{
			CallID:   tc.ID,
			ToolName: tc.Name,
			Reason:   "denied by permission rules",
		})
		l.advance(rec, toolcall.StatusError, records)
		return bus.ConfirmationDenied, errorResult(tc, fmt.Sprintf("Tool %s denied by permission rules", tc.Name)), false
	}

	// Ask tier: suspend until the user answers or the turn is cancelled.
	l.advance(rec, toolcall.StatusAwaitingApproval, records)

	resp, err := l.Approval.ConfirmToolCall(ctx, tc.ID, tc.Name, tc.Args)
	rec.CorrelationID = resp.CorrelationID
	if err != nil || resp.Outcome == bus.ConfirmationCancelled {
		l.advance(rec, toolcall.StatusCancelled, records)
		return bus.ConfirmationCancelled, errorResult(tc, "cancelled"), false
	}
	if resp.Outcome != bus.ConfirmationApproved {
		l.advance(rec, toolcall.StatusError, records)
		return bus.ConfirmationDenied, errorResult(tc, fmt.Sprintf("Tool %s denied by user", tc.Name)), false
	}

	if resp.ApproveAll {
		if l.sessionAllowed == nil {
			l.sessionAllowed = make(map[string]bool)
		}
		l.sessionAllowed[tc.Name] = true
	}
	l.advance(rec, toolcall.StatusScheduled, records)
	return bus.ConfirmationApproved, client.ToolResult{}, true
}

// runTool executes the named tool. AskUser is built in and routes through
// the question flow.
func (l *Loop) runTool(ctx context.Context, tc client.ToolCall) client.ToolResult {
	if tc.Name == "AskUser" {
		question, _ := tc.Args["question"].(string)
		var options []string
		if raw, ok := tc.Args["options"].([]any); ok {
			for _, o := range raw {
				if s, ok := o.(string); ok {
					options = append(options, s)
				}
			}
		}
		resp, err := l.Approval.AskQuestion(ctx, question, options)
		if err != nil || resp.Cancelled {
			return errorResult(tc, "cancelled")
		}
		return client.ToolResult{CallID: tc.ID, Name: tc.Name, Content: resp.Answer}
	}

	fn, ok := l.Tools[tc.Name]
	if !ok {
		return errorResult(tc, fmt.Sprintf("Unknown tool: %s", tc.Name))
	}

	out, err := fn(ctx, tc.Args)
	if err != nil {
		return errorResult(tc, err.Error())
	}
	return client.ToolResult{CallID: tc.ID, Name: tc.Name, Content: out}
}

// advance moves a record forward and republishes the snapshot. Invalid
// transitions indicate a coordination bug and are logged, not fatal.
func (l *Loop) advance(rec *toolcall.Record, next toolcall.Status, records []*toolcall.Record) {
	if err := rec.Advance(next); err != nil {
		log.Logger().Warn("tool call transition rejected", zap.Error(err))
		return
	}
	l.Aggregator.OnUpdate(records)
}

// cancelRemaining marks every non-terminal record cancelled and publishes a
// final snapshot.
func (l *Loop) cancelRemaining(records []*toolcall.Record) {
	for _, rec := range records {
		if !rec.Status.Terminal() {
			if err := rec.Advance(toolcall.StatusCancelled); err != nil {
				log.Logger().Warn("tool call cancel rejected", zap.Error(err))
			}
		}
	}
	l.Aggregator.OnUpdate(records)
}

func errorResult(tc client.ToolCall, msg string) client.ToolResult {
	return client.ToolResult{CallID: tc.ID, Name: tc.Name, Content: msg, IsError: true}
}

func toolErrText(r client.ToolResult) string {
	if r.IsError {
		return r.Content
	}
	return ""
}
