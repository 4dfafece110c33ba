package middleware

import (
	"context"
	"fmt"
	"net/http"

	"mikhailche/lurelog/lib/tracer.v2"

	"go.uber.org/zap"
)

type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RecoverMiddleware turns a panic into a PanicError. Error level reaches the developer chat when alerts are on.
func RecoverMiddleware(log *zap.Logger) MiddlewareFunc {
	return func(hf HandlerFunc) HandlerFunc {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				_, span := tracer.Open(ctx, tracer.Named("RecoverMiddleware::defer"))
				defer span.Close()
				if rec := recover(); rec != nil {
					log.WithOptions(zap.AddCallerSkip(3)).Error("Panic",
						zap.Any("panicObj", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"))
					err = PanicError{Value: rec}
				}
			}()
			return hf(ctx, w, r)
		}
	}
}
