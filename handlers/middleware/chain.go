package middleware

import (
	"context"
	"net/http"
)

// HandlerFunc serves a request and reports failures as an error instead of writing them.
type HandlerFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

type MiddlewareFunc func(hf HandlerFunc) HandlerFunc

// Chain wraps hf so that the first middleware runs first.
func Chain(hf HandlerFunc, mws ...MiddlewareFunc) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		hf = mws[i](hf)
	}
	return hf
}
