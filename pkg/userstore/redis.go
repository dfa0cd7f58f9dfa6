package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound is returned when no profile exists for a user ID
var ErrNotFound = errors.New("user profile not found")

// Profile holds a user's dietary preferences and constraints
type Profile struct {
	UserID            string    `json:"user_id"`
	Name              string    `json:"name,omitempty"`
	DietaryPreference string    `json:"dietary_preference,omitempty"`
	Allergies         []string  `json:"allergies,omitempty"`
	PriceSensitivity  string    `json:"price_sensitivity,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RedisStore persists user profiles as JSON values keyed by user ID
type RedisStore struct {
	client *redis.Client
	prefix string
}

// StoreOption represents an option for configuring the store
type StoreOption func(*RedisStore)

// WithKeyPrefix sets the key prefix for profile keys
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a new Redis-backed profile store
func NewRedisStore(client *redis.Client, options ...StoreOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: "profile",
	}

	for _, option := range options {
		option(store)
	}

	return store
}

func (s *RedisStore) key(userID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, userID)
}

// Get returns the profile for the given user ID
func (s *RedisStore) Get(ctx context.Context, userID string) (*Profile, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &profile, nil
}

// Upsert creates or updates the profile for profile.UserID. Zero-valued
// fields in the incoming profile keep their stored values.
func (s *RedisStore) Upsert(ctx context.Context, profile *Profile) (*Profile, error) {
	if profile.UserID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	now := time.Now().UTC()

	existing, err := s.Get(ctx, profile.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	merged := Profile{
		UserID:    profile.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		merged = *existing
		merged.UpdatedAt = now
	}

	if profile.Name != "" {
		merged.Name = profile.Name
	}
	if profile.DietaryPreference != "" {
		merged.DietaryPreference = profile.DietaryPreference
	}
	if profile.Allergies != nil {
		merged.Allergies = profile.Allergies
	}
	if profile.PriceSensitivity != "" {
		merged.PriceSensitivity = profile.PriceSensitivity
	}

	data, err := json.Marshal(&merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := s.client.Set(ctx, s.key(profile.UserID), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to store profile: %w", err)
	}

	return &merged, nil
}

// Delete removes the profile for the given user ID
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// Ping reports whether the backing Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
