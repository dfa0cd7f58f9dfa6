package memory

import (
	"context"
	"sync"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
)

// ConversationBuffer implements an in-memory, append-only transcript keyed
// by the conversation ID carried in the context
type ConversationBuffer struct {
	conversations map[string][]interfaces.Message
	maxSize       int
	mu            sync.RWMutex
}

// BufferOption represents an option for configuring the conversation buffer
type BufferOption func(*ConversationBuffer)

// WithMaxSize caps the number of messages kept per conversation; the oldest
// messages are dropped once the cap is exceeded. Zero means unbounded.
func WithMaxSize(size int) BufferOption {
	return func(b *ConversationBuffer) {
		b.maxSize = size
	}
}

// NewConversationBuffer creates a new in-memory conversation buffer
func NewConversationBuffer(options ...BufferOption) *ConversationBuffer {
	buffer := &ConversationBuffer{
		conversations: make(map[string][]interfaces.Message),
	}

	for _, option := range options {
		option(buffer)
	}

	return buffer
}

// AddMessage appends a message to the conversation's transcript
func (b *ConversationBuffer) AddMessage(ctx context.Context, message interfaces.Message) error {
	conversationID, err := ConversationIDFromContext(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	messages := append(b.conversations[conversationID], message)
	if b.maxSize > 0 && len(messages) > b.maxSize {
		messages = messages[len(messages)-b.maxSize:]
	}
	b.conversations[conversationID] = messages

	return nil
}

// GetMessages returns the conversation's transcript in order
func (b *ConversationBuffer) GetMessages(ctx context.Context, options ...interfaces.GetMessagesOption) ([]interfaces.Message, error) {
	conversationID, err := ConversationIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	opts := &interfaces.GetMessagesOptions{}
	for _, option := range options {
		option(opts)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	messages := b.conversations[conversationID]
	result := make([]interfaces.Message, 0, len(messages))
	for _, message := range messages {
		if len(opts.Roles) > 0 && !containsRole(opts.Roles, message.Role) {
			continue
		}
		result = append(result, message)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[len(result)-opts.Limit:]
	}

	return result, nil
}

// Clear removes the conversation's transcript
func (b *ConversationBuffer) Clear(ctx context.Context) error {
	conversationID, err := ConversationIDFromContext(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, conversationID)

	return nil
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
