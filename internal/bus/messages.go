package bus

// Kind identifies a message type on the bus.
type Kind string

const (
	KindToolConfirmationRequest  Kind = "tool_confirmation_request"
	KindToolConfirmationResponse Kind = "tool_confirmation_response"
	KindUserQuestionRequest      Kind = "user_question_request"
	KindUserQuestionResponse     Kind = "user_question_response"
	KindPolicyRejection          Kind = "policy_rejection"
	KindPolicyUpdate             Kind = "policy_update"
	KindToolExecutionSuccess     Kind = "tool_execution_success"
	KindToolExecutionFailure     Kind = "tool_execution_failure"
	KindHookExecutionRequest     Kind = "hook_execution_request"
	KindHookExecutionResponse    Kind = "hook_execution_response"
	KindHookPolicyDecision       Kind = "hook_policy_decision"
	KindToolCallsUpdate          Kind = "tool_calls_update"
	KindTaskStatusUpdate         Kind = "task_status_update"
)

// Message is implemented by every bus message type.
type Message interface {
	MessageKind() Kind
}

// Response is implemented by messages that answer an earlier request.
// The bus uses the correlation id to enforce at-most-once delivery.
type Response interface {
	Message
	Correlation() string
}

// ToolConfirmationRequest asks the user interface to confirm a pending tool
// call before it executes.
type ToolConfirmationRequest struct {
	CorrelationID string
	CallID        string
	ToolName      string
	Args          map[string]any
}

func (ToolConfirmationRequest) MessageKind() Kind { return KindToolConfirmationRequest }

// ConfirmationOutcome is the user's answer to a confirmation request.
type ConfirmationOutcome string

const (
	ConfirmationApproved  ConfirmationOutcome = "approved"
	ConfirmationDenied    ConfirmationOutcome = "denied"
	ConfirmationCancelled ConfirmationOutcome = "cancelled"
)

// ToolConfirmationResponse carries the user's verdict back to the waiter.
type ToolConfirmationResponse struct {
	CorrelationID string
	Outcome       ConfirmationOutcome
	// ApproveAll extends the approval to matching calls for the session.
	ApproveAll bool
}

func (ToolConfirmationResponse) MessageKind() Kind    { return KindToolConfirmationResponse }
func (m ToolConfirmationResponse) Correlation() string { return m.CorrelationID }

// UserQuestionRequest asks the user a free-form question.
type UserQuestionRequest struct {
	CorrelationID string
	Question      string
	Options       []string
}

func (UserQuestionRequest) MessageKind() Kind { return KindUserQuestionRequest }

// UserQuestionResponse carries the user's answer.
type UserQuestionResponse struct {
	CorrelationID string
	Answer        string
	Cancelled     bool
}

func (UserQuestionResponse) MessageKind() Kind    { return KindUserQuestionResponse }
func (m UserQuestionResponse) Correlation() string { return m.CorrelationID }

// PolicyRejection reports a tool call rejected by permission rules before any
// confirmation was raised.
type PolicyRejection struct {
	CallID   string
	ToolName string
	Reason   string
}

func (PolicyRejection) MessageKind() Kind { return KindPolicyRejection }

// PolicyUpdate announces that permission rules changed mid-session.
type PolicyUpdate struct {
	AddedAllow []string
	AddedDeny  []string
}

func (PolicyUpdate) MessageKind() Kind { return KindPolicyUpdate }

// ToolExecutionSuccess reports a completed tool call.
type ToolExecutionSuccess struct {
	CallID   string
	ToolName string
	Result   string
}

func (ToolExecutionSuccess) MessageKind() Kind { return KindToolExecutionSuccess }

// ToolExecutionFailure reports a failed tool call.
type ToolExecutionFailure struct {
	CallID   string
	ToolName string
	Error    string
}

func (ToolExecutionFailure) MessageKind() Kind { return KindToolExecutionFailure }

// HookExecutionRequest asks the dispatcher to fire an event's hook set on
// behalf of another component.
type HookExecutionRequest struct {
	CorrelationID string
	EventName     string
	ToolName      string
	Payload       map[string]any
}

func (HookExecutionRequest) MessageKind() Kind { return KindHookExecutionRequest }

// HookExecutionResponse carries the merged outcome of a requested hook run.
type HookExecutionResponse struct {
	CorrelationID     string
	SystemMessage     string
	AdditionalContext string
}

func (HookExecutionResponse) MessageKind() Kind    { return KindHookExecutionResponse }
func (m HookExecutionResponse) Correlation() string { return m.CorrelationID }

// HookPolicyDecision reports a structured allow/deny verdict from a hook.
type HookPolicyDecision struct {
	EventName string
	ToolName  string
	Action    string // "allow" or "deny"
	Reason    string
}

func (HookPolicyDecision) MessageKind() Kind { return KindHookPolicyDecision }

// ToolCallStatus is a point-in-time view of one tool call, published as part
// of a ToolCallsUpdate snapshot.
type ToolCallStatus struct {
	CallID string
	Name   string
	Status string
}

// ToolCallsUpdate publishes the full set of tool calls active in the turn.
type ToolCallsUpdate struct {
	Records []ToolCallStatus
}

func (ToolCallsUpdate) MessageKind() Kind { return KindToolCallsUpdate }

// TaskStatusUpdate is the aggregate task status derived from a snapshot.
type TaskStatusUpdate struct {
	Status string // "working" or "input-required"
	Final  bool
}

func (TaskStatusUpdate) MessageKind() Kind { return KindTaskStatusUpdate }
