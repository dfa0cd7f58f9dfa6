package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/userstore"
)

// Store is the profile persistence the tools operate on
type Store interface {
	Get(ctx context.Context, userID string) (*userstore.Profile, error)
	Upsert(ctx context.Context, profile *userstore.Profile) (*userstore.Profile, error)
}

// Tools returns the profile tools for the given store and default user.
// The default user ID is used when the model omits user_id, matching how
// the chat endpoint assigns identity.
func Tools(store Store, defaultUserID string) []interfaces.Tool {
	return []interfaces.Tool{
		&getTool{store: store, defaultUserID: defaultUserID},
		&updateTool{store: store, defaultUserID: defaultUserID},
	}
}

type getTool struct {
	store         Store
	defaultUserID string
}

func (t *getTool) Name() string {
	return "get_user_profile"
}

func (t *getTool) Description() string {
	return "Get a user's saved profile: dietary preference, allergies and price sensitivity."
}

func (t *getTool) Parameters() map[string]interfaces.ParameterSpec {
	return map[string]interfaces.ParameterSpec{
		"user_id": {
			Type:        "string",
			Description: "ID of the user whose profile to fetch",
			Required:    false,
		},
	}
}

func (t *getTool) Execute(ctx context.Context, args string) (string, error) {
	var params struct {
		UserID string `json:"user_id"`
	}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &params); err != nil {
			return "", fmt.Errorf("invalid input format: %w", err)
		}
	}
	if params.UserID == "" {
		params.UserID = t.defaultUserID
	}

	profile, err := t.store.Get(ctx, params.UserID)
	if errors.Is(err, userstore.ErrNotFound) {
		return fmt.Sprintf("No profile found for user %s.", params.UserID), nil
	} else if err != nil {
		return "", fmt.Errorf("get_user_profile failed: %w", err)
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	return string(data), nil
}

type updateTool struct {
	store         Store
	defaultUserID string
}

func (t *updateTool) Name() string {
	return "update_user_profile"
}

func (t *updateTool) Description() string {
	return "Create or update a user's profile. Only the provided fields change; omitted fields keep their stored values."
}

func (t *updateTool) Parameters() map[string]interfaces.ParameterSpec {
	return map[string]interfaces.ParameterSpec{
		"user_id": {
			Type:        "string",
			Description: "ID of the user whose profile to update",
			Required:    false,
		},
		"name": {
			Type:        "string",
			Description: "The user's display name",
			Required:    false,
		},
		"dietary_preference": {
			Type:        "string",
			Description: "Dietary preference such as 'vegetarian', 'vegan' or 'halal'",
			Required:    false,
		},
		"allergies": {
			Type:        "array",
			Description: "Allergens the user must avoid",
			Required:    false,
			Items:       &interfaces.ParameterSpec{Type: "string"},
		},
		"price_sensitivity": {
			Type:        "string",
			Description: "How price conscious the user is",
			Required:    false,
			Enum:        []interface{}{"low", "medium", "high"},
		},
	}
}

func (t *updateTool) Execute(ctx context.Context, args string) (string, error) {
	var params struct {
		UserID            string   `json:"user_id"`
		Name              string   `json:"name"`
		DietaryPreference string   `json:"dietary_preference"`
		Allergies         []string `json:"allergies"`
		PriceSensitivity  string   `json:"price_sensitivity"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return "", fmt.Errorf("invalid input format: %w", err)
	}
	if params.UserID == "" {
		params.UserID = t.defaultUserID
	}

	updated, err := t.store.Upsert(ctx, &userstore.Profile{
		UserID:            params.UserID,
		Name:              params.Name,
		DietaryPreference: params.DietaryPreference,
		Allergies:         params.Allergies,
		PriceSensitivity:  params.PriceSensitivity,
	})
	if err != nil {
		return "", fmt.Errorf("update_user_profile failed: %w", err)
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	return string(data), nil
}
