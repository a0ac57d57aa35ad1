package auth

import (
	"log/slog"
	"net/http"
)

// Middleware returns an HTTP middleware that authenticates the Basic
// credentials on every request.
//
// The middleware performs the following steps:
//  1. Extracts the Basic credentials from the Authorization header
//  2. Resolves them through the [Authenticator] (service identity or
//     impersonation probe)
//  3. Stores the resulting [Principal] in the request context
//  4. Wipes any retained credential bytes when the request completes
//
// A request without Basic credentials, or with credentials the
// authenticator rejects, is answered with HTTP 401 Unauthorized and a
// WWW-Authenticate challenge.
func Middleware(authn *Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}

			ctx := r.Context()
			principal, err := authn.Authenticate(ctx, username, password)
			if err != nil {
				logger.DebugContext(ctx, "auth: rejected request credentials",
					"username", username,
					"error", err,
				)
				unauthorized(w)
				return
			}
			defer principal.Wipe()

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, principal)))
		})
	}
}

// unauthorized writes the 401 challenge response.
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="bolt-gateway"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
