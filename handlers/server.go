package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mikhailche/lurelog/handlers/middleware"
	"mikhailche/lurelog/services"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// errResponseStarted marks failures after the status line was sent. Nothing more can be written then.
var errResponseStarted = errors.New("response already started")

type Options struct {
	// BaseURL prefixes short links handed out to clients. Empty means site-relative links.
	BaseURL      string
	CookieName   string
	SecureCookie bool
	SlowRequest  time.Duration
}

type Services struct {
	Auth    *services.AuthService
	Journal *services.JournalService
	Gear    *services.GearService
	Links   *services.ShortLinkService
	Species *services.SpeciesService
	Admin   *services.AdminService
}

// Server routes requests through the common middleware to controllers.
type Server struct {
	mux   *http.ServeMux
	log   *zap.Logger
	opts  Options
	use   []middleware.MiddlewareFunc
	pages *pageRenderer
}

func NewServer(log *zap.Logger, svc Services, opts Options) *Server {
	s := &Server{mux: http.NewServeMux(), log: log, opts: opts, pages: newPageRenderer(log)}
	s.use = []middleware.MiddlewareFunc{
		middleware.RecoverMiddleware(log),
		middleware.TracingMiddleware(log, opts.SlowRequest),
		middleware.CurrentUserInContext(svc.Auth, opts.CookieName, log),
	}
	AuthController(s, svc.Auth)
	TripsController(s, svc.Journal, svc.Links)
	GearController(s, svc.Gear)
	SpeciesController(s, svc.Species)
	ShortLinkController(s, svc.Links)
	AdminController(s, svc.Admin)
	PagesController(s, svc.Auth, svc.Journal, svc.Gear, svc.Admin)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// API registers a JSON endpoint. Errors are rendered as {"error": "..."}.
func (s *Server) API(pattern string, hf middleware.HandlerFunc, mws ...middleware.MiddlewareFunc) {
	s.handle(pattern, hf, s.writeError, mws...)
}

// Page registers an HTML endpoint. Errors are rendered with the error page.
func (s *Server) Page(pattern string, hf middleware.HandlerFunc, mws ...middleware.MiddlewareFunc) {
	s.handle(pattern, hf, s.pages.renderError, mws...)
}

func (s *Server) handle(pattern string, hf middleware.HandlerFunc, onError func(http.ResponseWriter, *http.Request, int, string), mws ...middleware.MiddlewareFunc) {
	chain := middleware.Chain(hf, append(append([]middleware.MiddlewareFunc{}, s.use...), mws...)...)
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := chain(r.Context(), w, r)
		if err == nil {
			return
		}
		if errors.Is(err, errResponseStarted) {
			s.log.Warn("Could not finish response", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
			return
		}
		status := StatusOf(err)
		if status == http.StatusInternalServerError {
			s.log.Error("Request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		} else {
			s.log.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
		}
		onError(w, r, status, publicMessage(err, status))
	}))
}

func (s *Server) writeError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("%w: write json: %w", errResponseStarted, err)
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", services.ErrInvalidInput, err)
	}
	return nil
}

// principal is only called behind RequireUser or RequireAdmin.
func principal(ctx context.Context) services.Principal {
	p, _ := services.PrincipalFromContext(ctx)
	return p
}

func (s *Server) setSession(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
