package shared

import "context"

// AuthenticatedPrincipal is the verified identity supplied by the external
// token-verification layer. RoleNameHint is the role name claimed by the
// credential; authorization decisions never trust it and always re-read the
// role store.
type AuthenticatedPrincipal struct {
	PrincipalID  int64
	RoleNameHint string
}

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated principal in context.
func ContextWithPrincipal(ctx context.Context, p AuthenticatedPrincipal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the authenticated principal from context.
func PrincipalFromContext(ctx context.Context) (AuthenticatedPrincipal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(AuthenticatedPrincipal)
	return p, ok
}
