package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ActorKey contextKey = "actor"
	TokenKey contextKey = "token"
)

// Actor is the authenticated caller resolved by the session middleware.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func SetActorContext(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

func GetActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(Actor)
	if !ok || actor.ID == uuid.Nil {
		return Actor{}, false
	}
	return actor, true
}

// GetTokenFromContext mendapatkan token dari context
func GetTokenFromContext(ctx context.Context) (string, bool) {
	tokenVal := ctx.Value(TokenKey)
	if tokenVal == nil {
		return "", false
	}

	token, ok := tokenVal.(string)
	return token, ok
}

// SetTokenContext menambahkan token ke context
func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
