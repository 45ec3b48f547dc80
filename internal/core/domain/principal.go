package domain

import "context"

// Principal is the identity attached to a single authenticated request.
type Principal struct {
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	Authority string `json:"authority"`
}

// NewPrincipal builds a principal for username with the authority derived
// from role. It returns false for roles outside the closed set.
func NewPrincipal(username string, role Role) (*Principal, bool) {
	authority, ok := role.Authority()
	if !ok {
		return nil, false
	}
	return &Principal{Username: username, Role: role, Authority: authority}, true
}

// HasRole reports whether the principal holds any of roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal installed in ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
