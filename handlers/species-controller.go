package handlers

import (
	"context"
	"net/http"

	"mikhailche/lurelog/services"
)

func SpeciesController(s *Server, species *services.SpeciesService) {
	s.API("GET /api/species", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return writeJSON(w, http.StatusOK, nonNil(species.Species()))
	})
}
