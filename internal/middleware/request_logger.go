package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidfriends/feedclient/internal/logging"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Middleware decorates an outbound transport.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain applies middlewares so the first one listed sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// RequestLogger tags every outbound request with an X-Request-ID and logs
// its outcome through the logger found on the request context, falling back
// to base.
func RequestLogger(base *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			requestID := logging.RequestIDFromContext(r.Context())
			if requestID == "" {
				requestID = uuid.NewString()
			}

			logger := logging.FromContext(r.Context())
			if logger == slog.Default() && base != nil {
				logger = base
			}
			logger = logger.With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			r = r.Clone(logging.WithRequestID(r.Context(), requestID))
			r.Header.Set("X-Request-ID", requestID)

			resp, err := next.RoundTrip(r)
			if err != nil {
				logger.Warn("request failed",
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			level := slog.LevelDebug
			if resp.StatusCode >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "request completed",
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", time.Since(start)),
			)
			return resp, nil
		})
	}
}
