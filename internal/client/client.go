// Package client defines the boundary to the model-streaming backend. The
// coordination core only depends on this interface; concrete providers are
// wired at startup.
package client

import "context"

// Role represents the role of a message participant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolCall is a capability invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult carries a tool's output back into the conversation.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Response is one model completion: text and zero or more tool calls.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Client produces completions for a conversation.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message) (*Response, error)
}

// UserMessage creates a user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant message with its tool calls.
func AssistantMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolResultsMessage folds tool results into a user-role message.
func ToolResultsMessage(results []ToolResult) Message {
	return Message{Role: RoleUser, ToolResults: results}
}
