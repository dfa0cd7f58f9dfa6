package memory

import (
	"context"
	"fmt"
)

type contextKey string

const conversationIDKey contextKey = "conversation_id"

// WithConversationID returns a context carrying the conversation ID that
// memory implementations key their transcripts on
func WithConversationID(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, conversationIDKey, conversationID)
}

// ConversationIDFromContext returns the conversation ID from the context
func ConversationIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(conversationIDKey).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("conversation ID not found in context")
	}
	return id, nil
}
