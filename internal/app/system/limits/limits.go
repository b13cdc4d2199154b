// internal/app/system/limits/limits.go

// Package limits caps request body sizes so oversized payloads fail
// fast instead of exhausting memory in the JSON decoder.
package limits

import "net/http"

// MaxJSONBody is the largest request body any API endpoint accepts.
// Announcement bodies are the biggest legitimate payload and stay far
// below this.
const MaxJSONBody = 1 << 20 // 1 MB

// RequestBody returns middleware that wraps every request body in
// http.MaxBytesReader. Reads past n bytes fail and the decoder surfaces
// the error as a normal bad-input response.
func RequestBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
