package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one unit of work. Every log line written through the span's
// context carries its trace and span identifiers.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	attrs  []any
}

// StartSpan opens a child span of whatever span ctx carries, starting a new
// trace when there is none.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	parent := traceFromContext(ctx)
	logger := FromContext(ctx)

	current := trace{traceID: parent.traceID, spanID: uuid.NewString()}
	if current.traceID == "" {
		current.traceID = uuid.NewString()
		logger = logger.With(slog.String("trace_id", current.traceID))
	}

	logger = logger.With(slog.String("span_id", current.spanID), slog.String("span_name", name))
	if parent.spanID != "" {
		logger = logger.With(slog.String("parent_span_id", parent.spanID))
	}

	ctx = withTrace(ctx, current)
	ctx = WithLogger(ctx, logger)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// SetAttr attaches a key/value pair reported when the span ends.
func (s *Span) SetAttr(key string, value any) {
	if s == nil {
		return
	}
	s.attrs = append(s.attrs, slog.Any(key, value))
}

// End emits the completion entry.
func (s *Span) End() {
	s.EndErr(nil)
}

// EndErr emits the completion entry, at error level when err is non-nil.
func (s *Span) EndErr(err error) {
	if s == nil {
		return
	}

	attrs := append([]any{slog.Duration("duration", time.Since(s.start))}, s.attrs...)
	if err != nil {
		s.logger.Error("span failed", append(attrs, slog.Any("error", err))...)
		return
	}
	s.logger.Info("span completed", attrs...)
}
