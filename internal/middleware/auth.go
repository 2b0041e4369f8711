package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// public endpoints: tidak butuh API key dan tidak kena rate limit
var publicPaths = map[string]struct{}{
	"/":        {},
	"/healthz": {},
	"/livez":   {},
	"/readyz":  {},
	"/metrics": {},
}

func isPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// APIKeyAuth validates API key from Authorization or X-API-Key header.
// An empty key list disables authentication.
func APIKeyAuth(validKeys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				// support "Bearer <key>" dan "<key>"
				apiKey = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			}
			if apiKey == "" {
				writeDetail(w, http.StatusUnauthorized, "missing API key")
				return
			}

			valid := false
			for _, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					valid = true
					break
				}
			}
			if !valid {
				writeDetail(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeDetail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}
