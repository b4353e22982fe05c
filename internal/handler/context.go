package handler

import (
	"context"

	"github.com/rookpress/bookstall/internal/model"
)

type userKey struct{}

// WithUser stores the resolved user in the context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext retrieves the resolved user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey{}).(*model.User)
	return u
}
