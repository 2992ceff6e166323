package auth

import "context"

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Admin  bool
}

// CanAccess reports whether the caller may act on resources owned by userID.
func (p Principal) CanAccess(userID int64) bool {
	return p.Admin || p.UserID == userID
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
