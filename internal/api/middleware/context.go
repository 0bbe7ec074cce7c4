package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "userID"

var errUnauthorized = errors.New("unauthorized")

// ContextWithUserID stamps the context with the caller's user ID.
func ContextWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext reads the user ID stamped by ExtractUserIDFromJWT.
// String values are tolerated for callers that stamp the raw claim.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	switch v := ctx.Value(userIDKey).(type) {
	case uuid.UUID:
		return v, nil
	case string:
		if parsed, err := uuid.Parse(v); err == nil {
			return parsed, nil
		}
	}
	return uuid.Nil, errUnauthorized
}
