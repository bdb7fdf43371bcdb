package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID      string
	DisplayName string
	Role        string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, error) {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok && id.UserID != "" {
		return id, nil
	}
	return Identity{}, errors.New("identity not in context")
}

func UserID(ctx context.Context) (string, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return "", errors.New("user_id not in context")
	}
	return id.UserID, nil
}

func Role(ctx context.Context) (string, error) {
	id, err := IdentityFrom(ctx)
	if err != nil || id.Role == "" {
		return "", errors.New("role not in context")
	}
	return id.Role, nil
}

// DisplayName falls back to "there" so greetings still read naturally.
func DisplayName(ctx context.Context) string {
	id, err := IdentityFrom(ctx)
	if err != nil || id.DisplayName == "" {
		return "there"
	}
	return id.DisplayName
}
