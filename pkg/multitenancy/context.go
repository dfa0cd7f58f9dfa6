package multitenancy

import (
	"context"
	"fmt"
)

type contextKey string

const orgIDKey contextKey = "org_id"

// WithOrgID returns a context carrying the organization ID
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgIDKey, orgID)
}

// GetOrgID returns the organization ID from the context
func GetOrgID(ctx context.Context) (string, error) {
	orgID, ok := ctx.Value(orgIDKey).(string)
	if !ok || orgID == "" {
		return "", fmt.Errorf("organization ID not found in context")
	}
	return orgID, nil
}
