package profile_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/tools/profile"
	"github.com/unifeast/unifeast-agent/pkg/userstore"
)

// fakeStore keeps profiles in a map, mirroring the merge behavior of the
// real store
type fakeStore struct {
	profiles map[string]*userstore.Profile
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]*userstore.Profile)}
}

func (f *fakeStore) Get(ctx context.Context, userID string) (*userstore.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) Upsert(ctx context.Context, p *userstore.Profile) (*userstore.Profile, error) {
	merged := *p
	if existing, ok := f.profiles[p.UserID]; ok {
		if merged.Name == "" {
			merged.Name = existing.Name
		}
		if merged.DietaryPreference == "" {
			merged.DietaryPreference = existing.DietaryPreference
		}
		if merged.Allergies == nil {
			merged.Allergies = existing.Allergies
		}
		if merged.PriceSensitivity == "" {
			merged.PriceSensitivity = existing.PriceSensitivity
		}
	}
	f.profiles[p.UserID] = &merged
	return &merged, nil
}

func toolByName(t *testing.T, tools []interfaces.Tool, name string) interfaces.Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name() == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func TestGetProfileNotFound(t *testing.T) {
	tools := profile.Tools(newFakeStore(), "test_user_123")
	tool := toolByName(t, tools, "get_user_profile")

	result, err := tool.Execute(context.Background(), `{}`)
	require.NoError(t, err)
	assert.Contains(t, result, "No profile found")
	assert.Contains(t, result, "test_user_123")
}

func TestGetProfile(t *testing.T) {
	store := newFakeStore()
	store.profiles["alice"] = &userstore.Profile{
		UserID:            "alice",
		DietaryPreference: "vegetarian",
		Allergies:         []string{"peanuts"},
	}
	tool := toolByName(t, profile.Tools(store, "test_user_123"), "get_user_profile")

	raw, err := tool.Execute(context.Background(), `{"user_id":"alice"}`)
	require.NoError(t, err)

	var p userstore.Profile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "vegetarian", p.DietaryPreference)
	assert.Equal(t, []string{"peanuts"}, p.Allergies)
}

func TestUpdateProfileCreates(t *testing.T) {
	store := newFakeStore()
	tool := toolByName(t, profile.Tools(store, "test_user_123"), "update_user_profile")

	raw, err := tool.Execute(context.Background(),
		`{"dietary_preference":"vegan","allergies":["shellfish"]}`)
	require.NoError(t, err)

	var p userstore.Profile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "test_user_123", p.UserID)
	assert.Equal(t, "vegan", p.DietaryPreference)
	assert.Equal(t, []string{"shellfish"}, p.Allergies)
}

func TestUpdateProfileMergesOmittedFields(t *testing.T) {
	store := newFakeStore()
	store.profiles["bob"] = &userstore.Profile{
		UserID:            "bob",
		DietaryPreference: "halal",
		Allergies:         []string{"dairy"},
	}
	tool := toolByName(t, profile.Tools(store, "test_user_123"), "update_user_profile")

	raw, err := tool.Execute(context.Background(),
		`{"user_id":"bob","price_sensitivity":"high"}`)
	require.NoError(t, err)

	var p userstore.Profile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "halal", p.DietaryPreference)
	assert.Equal(t, []string{"dairy"}, p.Allergies)
	assert.Equal(t, "high", p.PriceSensitivity)
}

func TestUpdateProfileInvalidJSON(t *testing.T) {
	tool := toolByName(t, profile.Tools(newFakeStore(), "test_user_123"), "update_user_profile")

	_, err := tool.Execute(context.Background(), "not json")
	assert.Error(t, err)
}
