package middleware

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// NewLimiter builds a token bucket allowing rps requests per second with the
// given burst. A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// RateLimit delays outbound requests until the limiter grants a token. A
// cancelled context aborts the wait.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if limiter == nil {
			return next
		}
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
			return next.RoundTrip(r)
		})
	}
}
