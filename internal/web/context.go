package web

import (
	"net/http"

	"github.com/JonMunkholm/ploidy/internal/core"
)

// clientContext records the caller's IP and user agent for service logs.
// It runs after TrustedRealIP so RemoteAddr is already the client address.
func clientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithClient(r.Context(), clientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
