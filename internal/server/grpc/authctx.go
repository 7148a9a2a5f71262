package grpcserver

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/studydeck/internal/service"
)

// Caller is the authenticated principal of a request, taken from its access token.
type Caller struct {
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}

type callerKey struct{}

// callerFromClaims builds a Caller from verified claims. A malformed subject yields uuid.Nil.
func callerFromClaims(c *service.Claims) Caller {
	out := Caller{UserID: uuid.FromStringOrNil(c.Subject), Email: c.Email}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

// WithCaller attaches the caller to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller of an authenticated request.
// Anonymous requests and callers without a user ID report false.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || c.UserID == uuid.Nil {
		return Caller{}, false
	}
	return c, true
}
