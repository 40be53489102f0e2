package httpapi

import (
	"context"

	"github.com/riskibarqy/plus-predictor/internal/domain/user"
)

type contextKey string

const userContextKey contextKey = "auth_user"

func withUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func userFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userContextKey).(user.User)
	return u, ok && u.ID != ""
}
