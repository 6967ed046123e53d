package identity

import (
	"context"
	"strings"
)

// Identity is the authenticated caller as asserted by the auth proxy in
// front of this service. It is carried explicitly on the request context
// instead of living in ambient state.
type Identity struct {
	UID   string
	Email string
	Role  string
}

type contextKey struct{}

func (id Identity) IsZero() bool {
	return id.UID == "" && id.Email == ""
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	id.UID = strings.TrimSpace(id.UID)
	id.Role = strings.TrimSpace(id.Role)
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}
