package handlers

import (
	"context"
	"net/http"

	"mikhailche/lurelog/handlers/middleware"
	"mikhailche/lurelog/services"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

type me struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func AuthController(s *Server, auth *services.AuthService) {
	s.API("POST /api/auth/register", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in credentials
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		user, err := auth.Register(ctx, in.Email, in.Password, in.Nickname)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusCreated, user)
	})

	s.API("POST /api/auth/login", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in credentials
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		token, user, err := auth.Login(ctx, in.Email, in.Password)
		if err != nil {
			return err
		}
		s.setSession(w, token, auth.SessionTTL())
		return writeJSON(w, http.StatusOK, user)
	})

	s.API("POST /api/auth/logout", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s.clearSession(w)
		w.WriteHeader(http.StatusNoContent)
		return nil
	})

	s.API("GET /api/auth/me", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p := principal(ctx)
		return writeJSON(w, http.StatusOK, me{ID: p.UserID, Nickname: p.Nickname, Role: p.Role})
	}, middleware.RequireUser)
}
