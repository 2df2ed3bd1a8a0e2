package middleware

import "net/http"

// NoCache adds headers that stop browsers and proxies from caching
// responses. Authenticated pages must not survive in the back/forward cache
// after logout, so this runs on every route.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
