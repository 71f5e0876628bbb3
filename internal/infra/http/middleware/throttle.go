package middleware

import (
	"net/http"
	"time"

	"unibook/internal/infra/metrics"
	"unibook/internal/infra/network"
)

// Throttle rejects requests with 429 once the bucket is drained. A nil
// bucket disables throttling.
func Throttle(bucket *network.TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !bucket.Allow(time.Now()) {
			metrics.ThrottledTotal.Inc()
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
