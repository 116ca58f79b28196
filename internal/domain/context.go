package domain

import (
	"context"
	"time"
)

type principalKey struct{}

// Role values issued by the identity backend.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// ContextPrincipal is the operator behind the current request, as read from
// the backend's bearer token.
type ContextPrincipal struct {
	Username  string
	Name      string
	Role      string
	Domain    string
	ExpiresAt time.Time
}

// IsAdmin reports whether the operator holds the admin role.
func (p ContextPrincipal) IsAdmin() bool { return p.Role == RoleAdmin }

// DisplayName is the label of the signed-in operator.
func (p ContextPrincipal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}
