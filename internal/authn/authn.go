// Package authn is the boundary to the external authentication layer. The
// login flow itself lives elsewhere; by the time a request reaches this API
// the fronting gateway has verified the user and forwards the identity in
// headers, authenticating itself with a bearer service token.
package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Header names the gateway populates after verification.
const (
	HeaderUserID   = "X-User-ID"
	HeaderTenantID = "X-Tenant-ID"
)

// Principal identifies the verified caller.
type Principal struct {
	UserID   string
	TenantID string
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// Middleware authenticates the gateway and extracts the principal.
type Middleware struct {
	// TokenHash is the bcrypt hash of the service token the gateway
	// presents as a bearer credential.
	TokenHash []byte
	Logger    *slog.Logger
}

// Authenticate rejects requests without a valid service token or identity
// headers.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword(m.TokenHash, []byte(token)); err != nil {
			if m.Logger != nil {
				m.Logger.Warn("service token rejected", slog.String("path", r.URL.Path))
			}
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		principal := Principal{
			UserID:   strings.TrimSpace(r.Header.Get(HeaderUserID)),
			TenantID: strings.TrimSpace(r.Header.Get(HeaderTenantID)),
		}
		if principal.UserID == "" || principal.TenantID == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	return token, token != ""
}
