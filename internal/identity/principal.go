// Package identity carries the current principal through a request.
package identity

import "context"

// Principal is the caller of an operation. The zero value is anonymous.
type Principal struct {
	UserID uint
}

// Anonymous is the principal of unauthenticated callers.
var Anonymous = Principal{}

// User returns the principal for an authenticated user.
func User(id uint) Principal {
	return Principal{UserID: id}
}

// IsAnonymous reports whether no user is signed in.
func (p Principal) IsAnonymous() bool {
	return p.UserID == 0
}

// Is reports whether p is the given user.
func (p Principal) Is(userID uint) bool {
	return !p.IsAnonymous() && p.UserID == userID
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}
