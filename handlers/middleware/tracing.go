package middleware

import (
	"context"
	"net/http"
	"time"

	"mikhailche/lurelog/lib/tracer.v2"

	"go.uber.org/zap"
)

// TracingMiddleware opens a root span per request and logs the whole trace of slow ones.
func TracingMiddleware(log *zap.Logger, slow time.Duration) MiddlewareFunc {
	return func(hf HandlerFunc) HandlerFunc {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			ctx, span := tracer.Open(ctx, tracer.Named(r.Method+" "+r.URL.Path))
			err := hf(ctx, w, r)
			span.Close()
			if slow > 0 && span.Duration() > slow {
				trace, terr := span.PrintTrace()
				log.Warn("Slow request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("duration", span.Duration()),
					zap.ByteString("trace", trace),
					zap.NamedError("traceError", terr))
			}
			return err
		}
	}
}
