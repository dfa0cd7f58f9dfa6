package interfaces

import "context"

// Message represents a single turn in a conversation transcript
type Message struct {
	Role       string                 `json:"role"`
	Content    string                 `json:"content"`
	ToolCallID string                 `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall             `json:"tool_calls,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ToolCall records a tool invocation requested by the model
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Memory stores the ordered transcript of a conversation
type Memory interface {
	// AddMessage appends a message to the transcript
	AddMessage(ctx context.Context, message Message) error

	// GetMessages returns the transcript in order
	GetMessages(ctx context.Context, options ...GetMessagesOption) ([]Message, error)

	// Clear removes all messages for the conversation
	Clear(ctx context.Context) error
}

// GetMessagesOption represents an option for retrieving messages
type GetMessagesOption func(options *GetMessagesOptions)

// GetMessagesOptions contains configuration for retrieving messages
type GetMessagesOptions struct {
	Limit int      // Maximum number of messages to return (0 = all)
	Roles []string // Only return messages with these roles
}

// WithLimit creates a GetMessagesOption to limit the number of messages returned
func WithLimit(limit int) GetMessagesOption {
	return func(options *GetMessagesOptions) {
		options.Limit = limit
	}
}

// WithRoles creates a GetMessagesOption to filter messages by role
func WithRoles(roles ...string) GetMessagesOption {
	return func(options *GetMessagesOptions) {
		options.Roles = roles
	}
}
