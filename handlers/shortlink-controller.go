package handlers

import (
	"context"
	"net/http"

	"mikhailche/lurelog/services"
)

func ShortLinkController(s *Server, links *services.ShortLinkService) {
	s.Page("GET /s/{code}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		target, err := links.Resolve(ctx, r.PathValue("code"))
		if err != nil {
			return err
		}
		http.Redirect(w, r, target, http.StatusFound)
		return nil
	})
}
