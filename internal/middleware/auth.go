package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyAuth creates middleware guarding mutating endpoints with a single
// admin key. The configured key may be a bcrypt hash (recommended) or a
// plain value compared in constant time. An empty configured key disables
// the guard entirely, which is only suitable for local development.
func AdminKeyAuth(adminKey, headerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(headerName)
			if providedKey == "" {
				writeAuthError(w, "Admin key is required.")
				return
			}

			if !keyMatches(adminKey, providedKey) {
				writeAuthError(w, "Invalid admin key.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// keyMatches compares the provided key against the configured one. Bcrypt
// hashes are detected by prefix; anything else is a plain constant-time
// comparison.
func keyMatches(configured, provided string) bool {
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") || strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(provided)) == nil
	}
	return constantTimeEquals(configured, provided)
}

// constantTimeEquals compares two strings in constant time to prevent timing attacks
func constantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
