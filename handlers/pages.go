package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"mikhailche/lurelog/repository"
	"mikhailche/lurelog/services"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "journal", "trip", "admin", "error"}

type pageRenderer struct {
	log   *zap.Logger
	pages map[string]*template.Template
}

func newPageRenderer(log *zap.Logger) *pageRenderer {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02 15:04")
		},
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.New(name+".html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return &pageRenderer{log: log, pages: pages}
}

type pageData struct {
	Title  string
	Viewer services.Principal
	Data   any
}

func (p *pageRenderer) render(ctx context.Context, w http.ResponseWriter, status int, name, title string, data any) error {
	viewer, _ := services.PrincipalFromContext(ctx)
	var buf bytes.Buffer
	if err := p.pages[name].Execute(&buf, pageData{Title: title, Viewer: viewer, Data: data}); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write page %s: %w", errResponseStarted, name, err)
	}
	return nil
}

type errorPage struct {
	Status     int
	StatusText string
	Message    string
}

func (p *pageRenderer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := errorPage{Status: status, StatusText: http.StatusText(status), Message: message}
	if err := p.render(r.Context(), w, status, "error", http.StatusText(status), data); err != nil {
		p.log.Error("Could not render error page", zap.Error(err))
		if !errors.Is(err, errResponseStarted) {
			http.Error(w, message, status)
		}
	}
}

type loginPage struct {
	Email string
	Error string
}

type journalPage struct {
	Trips []repository.Trip
	Gear  []repository.Gear
}

type tripPage struct {
	Trip    *repository.Trip
	Catches []repository.Catch
}

type adminPage struct {
	Users []repository.User
	Trips []repository.Trip
	Audit []repository.AuditEntry
}

func PagesController(s *Server, auth *services.AuthService, journal *services.JournalService, gear *services.GearService, admin *services.AdminService) {
	s.Page("GET /{$}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if _, ok := services.PrincipalFromContext(ctx); ok {
			http.Redirect(w, r, "/journal", http.StatusFound)
		} else {
			http.Redirect(w, r, "/login", http.StatusFound)
		}
		return nil
	})

	s.Page("GET /login", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if _, ok := services.PrincipalFromContext(ctx); ok {
			http.Redirect(w, r, "/journal", http.StatusFound)
			return nil
		}
		return s.pages.render(ctx, w, http.StatusOK, "login", "Log in", loginPage{})
	})

	s.Page("POST /login", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return errors.Join(services.ErrInvalidInput, err)
		}
		email := r.PostForm.Get("email")
		token, _, err := auth.Login(ctx, email, r.PostForm.Get("password"))
		if errors.Is(err, services.ErrUnauthenticated) {
			return s.pages.render(ctx, w, http.StatusUnauthorized, "login", "Log in",
				loginPage{Email: email, Error: publicMessage(err, http.StatusUnauthorized)})
		}
		if err != nil {
			return err
		}
		s.setSession(w, token, auth.SessionTTL())
		http.Redirect(w, r, "/journal", http.StatusSeeOther)
		return nil
	})

	s.Page("POST /logout", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s.clearSession(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil
	})

	s.Page("GET /journal", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, ok := services.PrincipalFromContext(ctx)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return nil
		}
		trips, err := journal.ListTrips(ctx, p)
		if err != nil {
			return err
		}
		list, err := gear.ListGear(ctx, p)
		if err != nil {
			return err
		}
		return s.pages.render(ctx, w, http.StatusOK, "journal", "Journal", journalPage{Trips: trips, Gear: list})
	})

	s.Page("GET /trips/{id}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, _ := services.PrincipalFromContext(ctx)
		trip, err := journal.GetTrip(ctx, p, r.PathValue("id"))
		if err != nil {
			return err
		}
		catches, err := journal.ListCatches(ctx, p, trip.ID)
		if err != nil {
			return err
		}
		return s.pages.render(ctx, w, http.StatusOK, "trip", trip.Title, tripPage{Trip: trip, Catches: catches})
	})

	s.Page("GET /admin", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, ok := services.PrincipalFromContext(ctx)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return nil
		}
		if !p.IsAdmin() {
			http.Redirect(w, r, "/journal", http.StatusFound)
			return nil
		}
		users, err := admin.ListUsers(ctx, p)
		if err != nil {
			return err
		}
		trips, err := admin.ListAllTrips(ctx, p)
		if err != nil {
			return err
		}
		audit, err := admin.RecentAudit(ctx, p, 0)
		if err != nil {
			return err
		}
		return s.pages.render(ctx, w, http.StatusOK, "admin", "Admin", adminPage{Users: users, Trips: trips, Audit: audit})
	})
}
