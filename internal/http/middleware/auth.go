package middleware

import (
	"io"
	"net/http"
	"strings"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/logx"
)

// TokenVerifier turns a bearer token into a caller identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

func deny(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// Authenticate requires an "Authorization: Bearer <token>" header and stores
// the verified identity in the request context.
func Authenticate(logger logx.Logger, v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				deny(w, http.StatusUnauthorized, `{"error":"unauthorized"}`)
				return
			}
			id, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("token rejected", logx.String("path", r.URL.Path), logx.Err(err))
				deny(w, http.StatusUnauthorized, `{"error":"unauthorized"}`)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole lets through callers with the given role only.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, `{"error":"unauthorized"}`)
				return
			}
			if id.Role != role {
				deny(w, http.StatusForbidden, `{"error":"forbidden"}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
