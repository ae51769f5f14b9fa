package auth

import (
	"context"
	"errors"
)

type ctxKey int

const accountIDKey ctxKey = iota

var ErrAuthRequired = errors.New("authentication required")

// --- Context get/set ---

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

func AccountIDFromContext(ctx context.Context) string {
	accountID, _ := ctx.Value(accountIDKey).(string)
	return accountID
}

// --- Authorization checks ---

func RequireAccount(ctx context.Context) (string, error) {
	accountID := AccountIDFromContext(ctx)
	if accountID == "" {
		return "", ErrAuthRequired
	}
	return accountID, nil
}

func IsAuthenticated(ctx context.Context) bool { return AccountIDFromContext(ctx) != "" }
