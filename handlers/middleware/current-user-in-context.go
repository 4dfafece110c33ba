package middleware

import (
	"context"
	"net/http"
	"strings"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/services"

	"go.uber.org/zap"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (services.Principal, error)
}

func sessionToken(r *http.Request, cookieName string) string {
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(bearer)
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// CurrentUserInContext puts the session principal into ctx. Requests without a valid session pass on anonymously.
func CurrentUserInContext(auth authenticator, cookieName string, log *zap.Logger) MiddlewareFunc {
	return func(hf HandlerFunc) HandlerFunc {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			token := sessionToken(r, cookieName)
			if token != "" {
				mwctx, span := tracer.Open(ctx, tracer.Named("CurrentUserInContext"))
				p, err := auth.Authenticate(mwctx, token)
				span.Close()
				if err == nil {
					ctx = services.WithPrincipal(ctx, p)
					r = r.WithContext(ctx)
				} else {
					log.Debug("Ignoring session", zap.Error(err))
				}
			}
			return hf(ctx, w, r)
		}
	}
}

func RequireUser(hf HandlerFunc) HandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if _, ok := services.PrincipalFromContext(ctx); !ok {
			return services.ErrUnauthenticated
		}
		return hf(ctx, w, r)
	}
}

func RequireAdmin(hf HandlerFunc) HandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, ok := services.PrincipalFromContext(ctx)
		if !ok {
			return services.ErrUnauthenticated
		}
		if !p.IsAdmin() {
			return services.ErrForbidden
		}
		return hf(ctx, w, r)
	}
}
