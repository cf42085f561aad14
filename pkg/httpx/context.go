package httpx

import "context"

type ctxKey string

const CtxKeyPrincipal ctxKey = "principal"

// Principal is whatever an Authenticator resolved the bearer token to.
type Principal interface {
	PrincipalID() string
}

func contextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, CtxKeyPrincipal, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}
