package middleware

import (
	"context"
	"net/http"

	"github.com/dukahq/duka-backend/internal/identity"
	"github.com/dukahq/duka-backend/pkg/logger"
)

// IdentityVerifier resolves a bearer token to an identity. Satisfied by
// identity.FirebaseVerifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*identity.Identity, error)
}

// OptionalFirebaseAuth seeds the request context from a Firebase ID token
// when one is presented. Anonymous requests pass through as guests; a token
// Firebase rejects is treated the same way rather than failing the request,
// matching the optional bearer handling on cart routes.
func OptionalFirebaseAuth(verifier IdentityVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ident, err := verifier.Verify(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, ident.ID)
			ctx = context.WithValue(ctx, ctxUserEmail, ident.Email)
			if logg != nil {
				ctx = logg.WithIdentityID(ctx, ident.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
