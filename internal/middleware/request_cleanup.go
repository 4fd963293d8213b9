package middleware

import (
	"io"
	"net/http"
)

// DefaultMaxBodyBytes is plenty for an exercise entry or a completion state payload.
const DefaultMaxBodyBytes = 64 << 10

// LimitAndDrainRequest caps the request body size and, once the handler is done,
// drains and closes what is left so the connection can be reused.
// Decoding a body over the limit fails and the handlers answer with their bad request error.
func LimitAndDrainRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && maxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}

			next.ServeHTTP(w, r)

			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
