package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one client operation (a backend call, a restore, an upload)
// and logs its outcome when ended.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The first span of a user action
// mints the trace id; nested spans inherit it and record their parent.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	if TraceIDFromContext(ctx) == "" {
		traceID := uuid.NewString()
		ctx = withString(ctx, traceIDKey, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parent := SpanIDFromContext(ctx); parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withString(ctx, spanIDKey, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// Logger returns the span-scoped logger.
func (s *Span) Logger() *slog.Logger {
	if s == nil {
		return slog.Default()
	}
	return s.logger
}

// End logs completion. A non-nil err downgrades the entry to a warning;
// callers that swallow the error still get a diagnostic.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(s.start))
	if err != nil {
		s.logger.Warn("span failed", elapsed, slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("span completed", elapsed)
}
