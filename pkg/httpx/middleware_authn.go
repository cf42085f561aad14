package httpx

import (
	"context"
	"net/http"

	"github.com/maratshchur/django-auth-template/pkg/slogx"
)

// Authenticator resolves the raw Authorization header into a principal.
// It owns header parsing so every failure mode can be reported precisely.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (Principal, error)
}

// AuthErrorWriter renders an authentication failure.
type AuthErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// AuthnMiddleware authenticates every request and injects the principal into
// the context for downstream handlers. Failures are handed to onError.
func AuthnMiddleware(a Authenticator, onError AuthErrorWriter) Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			WriteBearerChallenge(w, "invalid_token")
			w.WriteHeader(http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			p, err := a.Authenticate(ctx, r.Header.Get("Authorization"))
			if err != nil {
				slogx.FromContext(ctx).Info("authentication failed", "err", err)
				onError(w, r, err)
				return
			}

			ctx = contextWithPrincipal(ctx, p)
			ctx = slogx.WithUserID(ctx, p.PrincipalID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteBearerChallenge sets an RFC 6750 WWW-Authenticate header. The caller
// still writes the status and body.
func WriteBearerChallenge(w http.ResponseWriter, code string) {
	if code == "" {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		return
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="`+code+`"`)
}
