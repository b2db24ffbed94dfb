package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AuthMiddleware requires the static access token on every request, either in
// the X-Access-Token header or the token query parameter. An empty token
// disables the check.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-Access-Token")
		if got == "" {
			// browsers cannot set headers on websocket upgrades
			got = r.URL.Query().Get("token")
		}

		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
