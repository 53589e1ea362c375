// Package authmw provides HTTP middleware for API key authentication.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKey returns middleware that validates the request carries the expected
// key, either in an X-API-Key header or as an Authorization Bearer token.
// Comparison uses constant-time equality to prevent timing side-channel
// attacks.
func APIKey(key string) func(http.Handler) http.Handler {
	expected := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if got == "" {
				auth := r.Header.Get("Authorization")
				if !strings.HasPrefix(auth, "Bearer ") {
					http.Error(w, `{"error":"missing api key"}`, http.StatusUnauthorized)
					return
				}
				got = auth[len("Bearer "):]
			}

			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
