package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mikhailche/lurelog/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func serve(t *testing.T, hf HandlerFunc, r *http.Request) error {
	t.Helper()
	return hf(r.Context(), httptest.NewRecorder(), r)
}

func TestChainOrder(t *testing.T) {
	var calls []string
	mw := func(name string) MiddlewareFunc {
		return func(hf HandlerFunc) HandlerFunc {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				calls = append(calls, name)
				return hf(ctx, w, r)
			}
		}
	}
	hf := Chain(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		calls = append(calls, "handler")
		return nil
	}, mw("first"), mw("second"))

	require.NoError(t, serve(t, hf, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, []string{"first", "second", "handler"}, calls)
}

func TestRecoverMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	hf := RecoverMiddleware(zap.New(core))(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})

	err := serve(t, hf, httptest.NewRequest(http.MethodGet, "/api/trips", nil))
	var panicErr PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.Value)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic", logs.All()[0].Message)
}

func TestTracingMiddlewareLogsSlowRequests(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	hf := TracingMiddleware(zap.New(core), time.Millisecond)(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	require.NoError(t, serve(t, hf, httptest.NewRequest(http.MethodGet, "/journal", nil)))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Slow request", entry.Message)
	assert.Contains(t, entry.ContextMap()["trace"], "GET /journal")
}

func TestTracingMiddlewareKeepsFastRequestsQuiet(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	hf := TracingMiddleware(zap.New(core), time.Minute)(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	})
	require.NoError(t, serve(t, hf, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Zero(t, logs.Len())
}

type fakeAuth struct {
	principals map[string]services.Principal
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (services.Principal, error) {
	if p, ok := f.principals[token]; ok {
		return p, nil
	}
	return services.Principal{}, services.ErrUnauthenticated
}

func TestCurrentUserAndRequirements(t *testing.T) {
	auth := fakeAuth{principals: map[string]services.Principal{
		"angler-token": {UserID: "u1", Role: "angler"},
		"admin-token":  {UserID: "u2", Role: "admin"},
	}}
	ok := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error { return nil }
	current := CurrentUserInContext(auth, "sid", zaptest.NewLogger(t))

	request := func(token string, viaHeader bool) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		switch {
		case token == "":
		case viaHeader:
			r.Header.Set("Authorization", "Bearer "+token)
		default:
			r.AddCookie(&http.Cookie{Name: "sid", Value: token})
		}
		return r
	}

	tests := []struct {
		name      string
		token     string
		viaHeader bool
		user      error
		admin     error
	}{
		{"anonymous", "", false, services.ErrUnauthenticated, services.ErrUnauthenticated},
		{"unknown token", "stale", false, services.ErrUnauthenticated, services.ErrUnauthenticated},
		{"angler cookie", "angler-token", false, nil, services.ErrForbidden},
		{"admin cookie", "admin-token", false, nil, nil},
		{"admin header", "admin-token", true, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := serve(t, Chain(ok, current, RequireUser), request(tt.token, tt.viaHeader))
			assert.True(t, errors.Is(err, tt.user) || err == tt.user, "user: %v", err)
			err = serve(t, Chain(ok, current, RequireAdmin), request(tt.token, tt.viaHeader))
			assert.True(t, errors.Is(err, tt.admin) || err == tt.admin, "admin: %v", err)
		})
	}
}

func TestCurrentUserReachesHandlerThroughRequest(t *testing.T) {
	auth := fakeAuth{principals: map[string]services.Principal{"t": {UserID: "u1"}}}
	var fromRequest services.Principal
	hf := CurrentUserInContext(auth, "sid", zaptest.NewLogger(t))(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fromRequest, _ = services.PrincipalFromContext(r.Context())
		return nil
	})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "t"})
	require.NoError(t, serve(t, hf, r))
	assert.Equal(t, "u1", fromRequest.UserID)
}
