package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"mikhailche/lurelog/lib/tracer.v2"
)

// TracedHttpClient opens a span for every outgoing request and dial.
// Secrets such as bot tokens are cut out of span names.
func TracedHttpClient(ctx context.Context, timeout time.Duration, secrets ...string) *http.Client {
	_, span := tracer.Open(ctx, tracer.Named("TracedHttpClient"))
	defer span.Close()
	return &http.Client{
		Transport: tracedRoundTripper(tracedTransport(), secrets),
		Timeout:   timeout,
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (t roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return t(r)
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "##")
		}
	}
	return s
}

func tracedRoundTripper(next http.RoundTripper, secrets []string) roundTripperFunc {
	return func(r *http.Request) (*http.Response, error) {
		newctx, span := tracer.Open(r.Context(), tracer.Named("HTTP::"+r.Method+" "+redact(r.URL.String(), secrets)))
		defer span.Close()
		return next.RoundTrip(r.WithContext(newctx))
	}
}

func tracedTransport() *http.Transport {
	// http.DefaultTransport with a traced dialer
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: tracedDialer((&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func tracedDialer(dialContext func(context.Context, string, string) (net.Conn, error)) func(ctx context.Context, network string, addr string) (net.Conn, error) {
	return func(ctx context.Context, network string, addr string) (net.Conn, error) {
		ctx, span := tracer.Open(ctx, tracer.Named("Dial::"+network+"//"+addr))
		defer span.Close()
		return dialContext(ctx, network, addr)
	}
}
