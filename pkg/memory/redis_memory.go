package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
)

// RedisMemory implements a transcript stored as a Redis list, one entry per
// message, keyed by the conversation ID carried in the context. The list TTL
// is refreshed on every append so idle conversations age out.
type RedisMemory struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption represents an option for configuring the Redis memory
type RedisOption func(*RedisMemory)

// WithTTL sets the time-to-live for a conversation's transcript
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisMemory) {
		r.ttl = ttl
	}
}

// WithKeyPrefix sets the key prefix for transcript keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisMemory) {
		r.prefix = prefix
	}
}

// NewRedisMemory creates a new Redis-backed memory
func NewRedisMemory(client *redis.Client, options ...RedisOption) *RedisMemory {
	memory := &RedisMemory{
		client: client,
		prefix: "chat",
		ttl:    72 * time.Hour,
	}

	for _, option := range options {
		option(memory)
	}

	return memory
}

func (r *RedisMemory) key(conversationID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, conversationID)
}

// AddMessage appends a message to the conversation's transcript
func (r *RedisMemory) AddMessage(ctx context.Context, message interfaces.Message) error {
	conversationID, err := ConversationIDFromContext(ctx)
	if err != nil {
		return err
	}

	if message.Metadata == nil {
		message.Metadata = make(map[string]interface{})
	}
	if _, ok := message.Metadata["timestamp"]; !ok {
		message.Metadata["timestamp"] = time.Now().UnixNano()
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.key(conversationID)
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh transcript TTL: %w", err)
		}
	}

	return nil
}

// GetMessages returns the conversation's transcript in order
func (r *RedisMemory) GetMessages(ctx context.Context, options ...interfaces.GetMessagesOption) ([]interfaces.Message, error) {
	conversationID, err := ConversationIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	opts := &interfaces.GetMessagesOptions{}
	for _, option := range options {
		option(opts)
	}

	entries, err := r.client.LRange(ctx, r.key(conversationID), 0, -1).Result()
	if err == redis.Nil {
		return []interfaces.Message{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	messages := make([]interfaces.Message, 0, len(entries))
	for i, entry := range entries {
		var message interfaces.Message
		if err := json.Unmarshal([]byte(entry), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %d: %w", i, err)
		}
		if len(opts.Roles) > 0 && !containsRole(opts.Roles, message.Role) {
			continue
		}
		messages = append(messages, message)
	}

	if opts.Limit > 0 && len(messages) > opts.Limit {
		messages = messages[len(messages)-opts.Limit:]
	}

	return messages, nil
}

// Clear removes the conversation's transcript
func (r *RedisMemory) Clear(ctx context.Context) error {
	conversationID, err := ConversationIDFromContext(ctx)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(conversationID)).Err(); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	return nil
}
