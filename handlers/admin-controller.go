package handlers

import (
	"context"
	"net/http"
	"strconv"

	"mikhailche/lurelog/handlers/middleware"
	"mikhailche/lurelog/repository"
	"mikhailche/lurelog/services"
)

type roleChange struct {
	Role string `json:"role"`
}

type textToCheck struct {
	Text string `json:"text"`
}

func AdminController(s *Server, admin *services.AdminService) {
	s.API("GET /admin/api/users", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		users, err := admin.ListUsers(ctx, principal(ctx))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, nonNil(users))
	}, middleware.RequireAdmin)

	s.API("PUT /admin/api/users/{id}/role", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in roleChange
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		user, err := admin.SetRole(ctx, principal(ctx), r.PathValue("id"), in.Role)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, user)
	}, middleware.RequireAdmin)

	s.API("GET /admin/api/trips", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		trips, err := admin.ListAllTrips(ctx, principal(ctx))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, nonNil(trips))
	}, middleware.RequireAdmin)

	s.API("DELETE /admin/api/trips/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := admin.DeleteTrip(ctx, principal(ctx), r.PathValue("id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, middleware.RequireAdmin)

	s.API("DELETE /admin/api/gear/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := admin.DeleteGear(ctx, principal(ctx), r.PathValue("id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, middleware.RequireAdmin)

	s.API("GET /admin/api/audit", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := admin.RecentAudit(ctx, principal(ctx), limit)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, nonNil(entries))
	}, middleware.RequireAdmin)

	s.API("POST /admin/api/words/check", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in textToCheck
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		result, err := admin.CheckText(ctx, principal(ctx), in.Text)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, result)
	}, middleware.RequireAdmin)

	s.API("POST /admin/api/species", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in repository.Species
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		if err := admin.AddSpecies(ctx, principal(ctx), in); err != nil {
			return err
		}
		return writeJSON(w, http.StatusCreated, in)
	}, middleware.RequireAdmin)
}
