package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dukahq/duka-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// Session pins a browsing-session identifier to the request. The client
// echoes the header back on subsequent calls; when it is absent or not a
// UUID the server mints a fresh one. The id keys the per-session cart, so it
// must be stable for the lifetime of a browsing session but carries no
// authentication weight.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
			}

			w.Header().Set(sessionIDHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
