package handlers

import (
	"context"
	"net/http"

	"mikhailche/lurelog/handlers/middleware"
	"mikhailche/lurelog/services"
)

func GearController(s *Server, gear *services.GearService) {
	s.API("GET /api/gear", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		list, err := gear.ListGear(ctx, principal(ctx))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, nonNil(list))
	}, middleware.RequireUser)

	s.API("POST /api/gear", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in services.GearInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		g, err := gear.CreateGear(ctx, principal(ctx), in)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusCreated, g)
	}, middleware.RequireUser)

	s.API("GET /api/gear/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		g, err := gear.GetGear(ctx, principal(ctx), r.PathValue("id"))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, g)
	}, middleware.RequireUser)

	s.API("PUT /api/gear/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in services.GearInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		g, err := gear.UpdateGear(ctx, principal(ctx), r.PathValue("id"), in)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, g)
	}, middleware.RequireUser)

	s.API("DELETE /api/gear/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := gear.DeleteGear(ctx, principal(ctx), r.PathValue("id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, middleware.RequireUser)

	s.API("POST /api/gear/{id}/copy", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		g, err := gear.CopyGear(ctx, principal(ctx), r.PathValue("id"))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusCreated, g)
	}, middleware.RequireUser)
}
