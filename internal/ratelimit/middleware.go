package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/abczzz13/clientaddr"
)

// unknownClient is the shared key for requests without a client address.
const unknownClient = "unknown"

// ClientKey returns the rate limit key of r: the resolved client address
// from the per-request cache, or "unknown".
func ClientKey(r *http.Request) string {
	if addr, ok := clientaddr.FromRequest(r); ok {
		return addr.String()
	}
	return unknownClient
}

// Middleware creates a rate limiting middleware keyed by ClientKey.
//
// It must run inside clientaddr's Resolver.Middleware.
func Middleware(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := limiter.GetLimiter(ClientKey(r))

			limit := strconv.Itoa(limiter.Burst())
			if !l.Allow() {
				w.Header().Set("X-RateLimit-Limit", limit)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				response := map[string]any{
					"error":   "Rate Limit Exceeded",
					"message": "Too many requests. Please try again later.",
				}
				if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
					response["request_id"] = requestID
				}

				_ = json.NewEncoder(w).Encode(response)
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(l.Tokens())))

			next.ServeHTTP(w, r)
		})
	}
}
