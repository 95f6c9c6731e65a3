package middleware

import "net/http"

// Incrementer is implemented by request counters.
type Incrementer interface {
	Increment()
}

// CountRequests increments counter once per request before calling next.
func CountRequests(counter Incrementer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			counter.Increment()
			next.ServeHTTP(w, r)
		})
	}
}
