package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/Octonove/octo-user-copy/pkg/utils/errutil"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
)

// keysMatch compares in constant time. An empty key never matches.
func keysMatch(provided, expected string) bool {
	if provided == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// apiKeyMiddleware guards the export endpoints with the shared key passed
// in the "key" query parameter
func apiKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !keysMatch(r.URL.Query().Get("key"), apiKey) {
				logging.From(r.Context()).Warn("Rejected export request",
					"path", r.URL.Path,
					"remote", r.RemoteAddr)
				errutil.WriteJSONError(w, http.StatusForbidden, "forbidden", "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerAuthMiddleware guards the admin endpoints
func bearerAuthMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || !keysMatch(strings.TrimSpace(token), adminKey) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="octo-user-copy"`)
				errutil.WriteJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestInfoMiddleware records the caller so that exports can be audited
func requestInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := usecase.WithRequestInfo(r.Context(), usecase.RequestInfo{
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
