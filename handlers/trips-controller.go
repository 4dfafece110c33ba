package handlers

import (
	"context"
	"net/http"
	"strings"

	"mikhailche/lurelog/handlers/middleware"
	"mikhailche/lurelog/repository"
	"mikhailche/lurelog/services"
)

type tripDetails struct {
	repository.Trip
	Catches []repository.Catch `json:"catches"`
}

type sharedLink struct {
	repository.ShortLink
	URL string `json:"url"`
}

func TripsController(s *Server, journal *services.JournalService, links *services.ShortLinkService) {
	s.API("GET /api/trips", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		trips, err := journal.ListTrips(ctx, principal(ctx))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, nonNil(trips))
	}, middleware.RequireUser)

	s.API("POST /api/trips", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in services.TripInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		trip, err := journal.CreateTrip(ctx, principal(ctx), in)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusCreated, trip)
	}, middleware.RequireUser)

	// public trips are readable without a session
	s.API("GET /api/trips/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, _ := services.PrincipalFromContext(ctx)
		trip, err := journal.GetTrip(ctx, p, r.PathValue("id"))
		if err != nil {
			return err
		}
		catches, err := journal.ListCatches(ctx, p, trip.ID)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, tripDetails{Trip: *trip, Catches: nonNil(catches)})
	})

	s.API("PUT /api/trips/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in services.TripInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		trip, err := journal.UpdateTrip(ctx, principal(ctx), r.PathValue("id"), in)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, trip)
	}, middleware.RequireUser)

	s.API("DELETE /api/trips/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := journal.DeleteTrip(ctx, principal(ctx), r.PathValue("id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, middleware.RequireUser)

	s.API("POST /api/trips/{id}/copy", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		trip, err := journal.CopyTrip(ctx, principal(ctx), r.PathValue("id"))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusCreated, trip)
	}, middleware.RequireUser)

	s.API("POST /api/trips/{id}/share", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		link, err := links.ShareTrip(ctx, principal(ctx), r.PathValue("id"))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusCreated, sharedLink{ShortLink: *link, URL: strings.TrimSuffix(s.opts.BaseURL, "/") + "/s/" + link.Code})
	}, middleware.RequireUser)

	s.API("GET /api/trips/{id}/catches", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, _ := services.PrincipalFromContext(ctx)
		catches, err := journal.ListCatches(ctx, p, r.PathValue("id"))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, nonNil(catches))
	})

	s.API("POST /api/trips/{id}/catches", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in services.CatchInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		c, err := journal.AddCatch(ctx, principal(ctx), r.PathValue("id"), in)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusCreated, c)
	}, middleware.RequireUser)

	s.API("PUT /api/catches/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in services.CatchInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		c, err := journal.UpdateCatch(ctx, principal(ctx), r.PathValue("id"), in)
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, c)
	}, middleware.RequireUser)

	s.API("DELETE /api/catches/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := journal.DeleteCatch(ctx, principal(ctx), r.PathValue("id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, middleware.RequireUser)
}

// nonNil keeps empty lists as [] in JSON.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
