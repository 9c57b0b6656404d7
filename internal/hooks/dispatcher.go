package hooks

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/aide-sh/aide/internal/bus"
)

// turnPhase is the dispatcher's per-turn state.
type turnPhase int

const (
	// phaseIdle: no turn in flight.
	phaseIdle turnPhase = iota
	// phaseTurnActive: turn-start hooks fired, agent loop running.
	phaseTurnActive
	// phaseFiring: turn-end hooks in flight.
	phaseFiring
)

// Dispatcher-level sentinel errors. They distinguish "already firing" from
// "already fired": a turn end raced by a session end sees ErrTurnEndInFlight
// while it runs and ErrNoActiveTurn after it completes.
var (
	ErrTurnAlreadyActive = errors.New("hooks: turn already active")
	ErrTurnEndInFlight   = errors.New("hooks: turn end already firing")
	ErrNoActiveTurn      = errors.New("hooks: no active turn")
)

// Dispatcher fires a named lifecycle event across all matching enabled hooks
// exactly once per logical turn, merging their outputs. A turn may include
// any number of tool-call round-trips; those fire the tool-scoped hook set
// per call without re-entering the turn state machine.
type Dispatcher struct {
	registry *Registry
	runner   *Runner
	bus      *bus.Bus

	// phaseCh is a one-slot latch holding the current phase. Taking the
	// value, inspecting it, and putting the next phase back makes each
	// transition atomic without holding a lock across hook execution.
	phaseCh chan turnPhase
}

// NewDispatcher creates a dispatcher. When b is non-nil the dispatcher
// subscribes to hook execution requests and publishes policy decisions.
func NewDispatcher(registry *Registry, runner *Runner, b *bus.Bus) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		runner:   runner,
		bus:      b,
		phaseCh:  make(chan turnPhase, 1),
	}
	d.phaseCh <- phaseIdle
	if b != nil {
		b.Subscribe(bus.KindHookExecutionRequest, d.onExecutionRequest)
	}
	return d
}

// BeginTurn enters TurnActive and fires every enabled BeforeAgent entry
// exactly once, returning the merged outcome for prompt injection. A second
// call while a turn is in flight returns ErrTurnAlreadyActive.
func (d *Dispatcher) BeginTurn(ctx context.Context, userMessage string) (Outcome, error) {
	phase := <-d.phaseCh
	if phase != phaseIdle {
		d.phaseCh <- phase
		return Outcome{}, ErrTurnAlreadyActive
	}
	d.phaseCh <- phaseTurnActive

	outcome := d.fireSet(ctx, BeforeAgent, Input{UserMessage: userMessage}, MatchContext{})
	return outcome, nil
}

// EndTurn transitions to Firing, fires the AfterAgent set exactly once, and
// returns to Idle. Calling it with no turn active (already fired) returns
// ErrNoActiveTurn; calling it while another end is firing returns
// ErrTurnEndInFlight.
func (d *Dispatcher) EndTurn(ctx context.Context, prompt, finalResponse string) (Outcome, error) {
	phase := <-d.phaseCh
	switch phase {
	case phaseIdle:
		d.phaseCh <- phase
		return Outcome{}, ErrNoActiveTurn
	case phaseFiring:
		d.phaseCh <- phase
		return Outcome{}, ErrTurnEndInFlight
	}
	d.phaseCh <- phaseFiring

	outcome := d.fireSet(ctx, AfterAgent, Input{Prompt: prompt, FinalResponse: finalResponse}, MatchContext{})

	<-d.phaseCh
	d.phaseCh <- phaseIdle
	return outcome, nil
}

// TurnActive reports whether a turn is currently in flight.
func (d *Dispatcher) TurnActive() bool {
	phase := <-d.phaseCh
	d.phaseCh <- phase
	return phase != phaseIdle
}

// RunBeforeTool fires the BeforeTool set for one tool call. Independent of
// the turn state machine.
func (d *Dispatcher) RunBeforeTool(ctx context.Context, callID, toolName string, args map[string]any) Outcome {
	input := Input{ToolUseID: callID, ToolName: toolName, ToolInput: args}
	return d.fireSet(ctx, BeforeTool, input, MatchContext{ToolName: toolName})
}

// RunAfterTool fires the AfterTool set for one completed tool call.
func (d *Dispatcher) RunAfterTool(ctx context.Context, callID, toolName string, args map[string]any, response, toolErr string) Outcome {
	input := Input{
		ToolUseID:    callID,
		ToolName:     toolName,
		ToolInput:    args,
		ToolResponse: response,
		ToolError:    toolErr,
	}
	return d.fireSet(ctx, AfterTool, input, MatchContext{ToolName: toolName})
}

// RunSessionStart fires the SessionStart set.
func (d *Dispatcher) RunSessionStart(ctx context.Context, source string) Outcome {
	return d.fireSet(ctx, SessionStart, Input{Source: source}, MatchContext{})
}

// RunSessionEnd fires the SessionEnd set.
func (d *Dispatcher) RunSessionEnd(ctx context.Context, reason string) Outcome {
	return d.fireSet(ctx, SessionEnd, Input{Reason: reason}, MatchContext{})
}

// fireSet runs every matching enabled entry for one event. Sequential
// entries run one at a time in registration order; the rest run
// concurrently. Merged output order is stable registration order, not
// completion order. Timeouts are per entry, never per group.
func (d *Dispatcher) fireSet(ctx context.Context, event EventType, input Input, matchCtx MatchContext) Outcome {
	entries := d.registry.FindMatching(event, matchCtx)
	if len(entries) == 0 {
		return Outcome{}
	}

	results := make([]ExecutionResult, len(entries))

	var g errgroup.Group
	for i, entry := range entries {
		if entry.Sequential {
			continue
		}
		i, entry := i, entry
		g.Go(func() error {
			results[i] = d.runner.Run(ctx, entry, input)
			return nil
		})
	}
	for i, entry := range entries {
		if entry.Sequential {
			results[i] = d.runner.Run(ctx, entry, input)
		}
	}
	g.Wait()

	var outcome Outcome
	for _, res := range results {
		outcome.append(res)
		if d.bus != nil && res.Parsed.Decision != nil {
			d.bus.Publish(bus.HookPolicyDecision{
				EventName: string(event),
				ToolName:  input.ToolName,
				Action:    res.Parsed.Decision.Action,
				Reason:    res.Parsed.Decision.SystemMessage,
			})
		}
	}
	return outcome
}

// onExecutionRequest services hook runs requested over the bus by other
// components, answering with the merged outcome under the request's
// correlation id.
func (d *Dispatcher) onExecutionRequest(msg bus.Message) {
	req, ok := msg.(bus.HookExecutionRequest)
	if !ok {
		return
	}

	var outcome Outcome
	if KnownEvent(req.EventName) {
		event := EventType(req.EventName)
		input := Input{ToolName: req.ToolName, ToolInput: req.Payload}
		outcome = d.fireSet(context.Background(), event, input, MatchContext{ToolName: req.ToolName})
	}

	d.bus.Publish(bus.HookExecutionResponse{
		CorrelationID:     req.CorrelationID,
		SystemMessage:     outcome.SystemMessage,
		AdditionalContext: outcome.AdditionalContext,
	})
}
