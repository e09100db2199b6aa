package middleware

import "net/http"

// Header values attached to every response.
const (
	ContentTypeOptions = "nosniff"
	CacheControl       = "private, max-age=3600"
)

// SecurityHeaders sets X-Content-Type-Options and Cache-Control on every
// response, error responses included. It must wrap everything that can write
// a response, CORS preflight handling among them.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", ContentTypeOptions)
		h.Set("Cache-Control", CacheControl)
		next.ServeHTTP(w, r)
	})
}
