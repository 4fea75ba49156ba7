package middleware

import (
	"net/http"
	"time"
)

// HTTPObserver records request counts and latency.
type HTTPObserver interface {
	ObserveHTTP(route, method string, code int, d time.Duration)
}

// Metrics reports every request to obs, labelled by chi route pattern so
// path parameters do not explode label cardinality.
func Metrics(obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrap(w)
			next.ServeHTTP(ww, r)
			obs.ObserveHTTP(routePattern(r), r.Method, ww.status, time.Since(start))
		})
	}
}
