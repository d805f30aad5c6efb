package api

import (
	"net/http"

	"golang.org/x/time/rate"

	"coachlink/infrastructure"
)

// RateLimitMiddleware applies a process-wide token bucket. Burst equals the
// sustained rate so short spikes pass through.
func RateLimitMiddleware(rps int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				infrastructure.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"message": "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
