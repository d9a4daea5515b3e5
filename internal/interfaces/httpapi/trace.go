package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("starleague-draft/internal/interfaces/httpapi")

// tracedSpanPrefixes lists the span families worth recording under a request.
var tracedSpanPrefixes = []string{"httpapi.Handler.", "httpapi.Require"}

// startSpan opens a child span for handlers and auth only, and never starts a
// root span for untraced requests such as health probes.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() || !shouldCreateHTTPAPISpan(name) {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return apiTracer.Start(ctx, name)
}

func shouldCreateHTTPAPISpan(name string) bool {
	for _, prefix := range tracedSpanPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
