package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mikhailche/lurelog/lib/session"
	"mikhailche/lurelog/repository"
	"mikhailche/lurelog/repository/sqlite"
	"mikhailche/lurelog/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const cookieName = "lurelog_session"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	dir := t.TempDir()

	store, err := sqlite.Open(ctx, filepath.Join(dir, "lurelog.db"), log)
	require.NoError(t, err)
	require.NoError(t, store.Init(ctx))
	wordsPath := filepath.Join(dir, "banned-words.txt")
	require.NoError(t, os.WriteFile(wordsPath, []byte("# test list\nbadword\n"), 0o600))

	audit := services.NewAuditLog(store, log)
	t.Cleanup(func() {
		audit.Close()
		store.Close()
	})
	filter := services.NewSensitiveFilter(services.NewWordList(wordsPath, log))
	codec := session.NewCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	species, err := services.NewSpeciesService(ctx, store, log)
	require.NoError(t, err)
	svc := Services{
		Auth:    services.NewAuthService(store, codec, filter, audit, log),
		Journal: services.NewJournalService(store, filter, audit),
		Gear:    services.NewGearService(store, filter, audit),
		Links:   services.NewShortLinkService(store, audit, log),
		Species: species,
		Admin:   services.NewAdminService(store, filter, species, audit, log),
	}
	return NewServer(log, svc, Options{CookieName: cookieName, SlowRequest: time.Minute})
}

func do(t *testing.T, srv http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", cookieName)
	return nil
}

// signUp registers and logs in a user, returning the session cookie.
func signUp(t *testing.T, srv http.Handler, email string) *http.Cookie {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/auth/register", credentials{Email: email, Password: "correct horse", Nickname: "Angler"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPost, "/api/auth/login", credentials{Email: email, Password: "correct horse"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ContentRejectedError{Field: "notes", Word: "x"}, http.StatusBadRequest},
		{fmt.Errorf("create: %w", services.ErrInvalidInput), http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("trip 1: %w", services.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("trip 1: %w", repository.ErrNotFound), http.StatusNotFound},
		{services.ErrConflict, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestInternalErrorsAreNotExposed(t *testing.T) {
	assert.Equal(t, "Internal Server Error", publicMessage(errors.New("sqlite: disk I/O error"), http.StatusInternalServerError))
}

// brokenWriter accepts the status line but fails every body write.
type brokenWriter struct {
	header   http.Header
	statuses []int
}

func (b *brokenWriter) Header() http.Header {
	return b.header
}

func (b *brokenWriter) WriteHeader(status int) {
	b.statuses = append(b.statuses, status)
}

func (b *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestFailedBodyWriteSendsOneStatus(t *testing.T) {
	srv := newTestServer(t)
	srv.API("GET /api/test/ok", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	w := &brokenWriter{header: http.Header{}}
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/test/ok", nil))
	assert.Equal(t, []int{http.StatusOK}, w.statuses)
}

func TestUnencodableResponseIsInternalError(t *testing.T) {
	srv := newTestServer(t)
	srv.API("GET /api/test/nan", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return writeJSON(w, http.StatusOK, map[string]float64{"length": math.NaN()})
	})

	rec := do(t, srv, http.MethodGet, "/api/test/nan", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal Server Error"}`, rec.Body.String())
}

func TestLoginSetsSessionCookie(t *testing.T) {
	srv := newTestServer(t)
	cookie := signUp(t, srv, "bob@example.com")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)

	rec := do(t, srv, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decode[me](t, rec).Role)

	rec = do(t, srv, http.MethodPost, "/api/auth/login", credentials{Email: "bob@example.com", Password: "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "wrong email or password: authentication required", decode[map[string]string](t, rec)["error"])

	rec = do(t, srv, http.MethodPost, "/api/auth/register", credentials{Email: "bob@example.com", Password: "correct horse", Nickname: "Bob"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)
}

func TestAPIRequiresSession(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/trips", "/api/gear", "/api/auth/me"} {
		rec := do(t, srv, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	}
	bogus := &http.Cookie{Name: cookieName, Value: "bm90IGEgcmVhbCB0b2tlbg=="}
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/trips", nil, bogus).Code)
}

func TestBearerToken(t *testing.T) {
	srv := newTestServer(t)
	cookie := signUp(t, srv, "bob@example.com")
	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestTripsAPI(t *testing.T) {
	srv := newTestServer(t)
	bob := signUp(t, srv, "bob@example.com")
	eve := signUp(t, srv, "eve@example.com")

	rec := do(t, srv, http.MethodPost, "/api/trips", services.TripInput{Title: "Dawn", Notes: "a badword here"}, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "notes")

	rec = do(t, srv, http.MethodPost, "/api/trips", services.TripInput{}, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/trips", map[string]any{"title": "Dawn", "unexpected": 1}, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/trips", services.TripInput{Title: "Dawn", Location: "Volga"}, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	trip := decode[repository.Trip](t, rec)

	rec = do(t, srv, http.MethodPost, "/api/trips/"+trip.ID+"/catches", services.CatchInput{Species: "Zander", LengthCm: 62}, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[repository.Catch](t, rec)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/trips/"+trip.ID, nil, eve).Code)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodPut, "/api/trips/"+trip.ID, services.TripInput{Title: "x"}, eve).Code)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodDelete, "/api/catches/"+c.ID, nil, eve).Code)

	rec = do(t, srv, http.MethodGet, "/api/trips/"+trip.ID, nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	details := decode[tripDetails](t, rec)
	assert.Equal(t, "Dawn", details.Title)
	require.Len(t, details.Catches, 1)

	rec = do(t, srv, http.MethodPut, "/api/catches/"+c.ID, services.CatchInput{Species: "Zander", LengthCm: 63, Released: true}, bob)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[repository.Catch](t, rec).Released)

	rec = do(t, srv, http.MethodPost, "/api/trips/"+trip.ID+"/share", nil, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	link := decode[sharedLink](t, rec)
	assert.Equal(t, "/s/"+link.Code, link.URL)

	rec = do(t, srv, http.MethodGet, link.URL, nil, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/trips/"+trip.ID, rec.Header().Get("Location"))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/s/nothere", nil, nil).Code)

	rec = do(t, srv, http.MethodGet, "/api/trips/"+trip.ID+"/catches", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]repository.Catch](t, rec), 1)

	rec = do(t, srv, http.MethodPost, "/api/trips/"+trip.ID+"/copy", nil, eve)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	copied := decode[repository.Trip](t, rec)
	assert.NotEqual(t, trip.ID, copied.ID)

	rec = do(t, srv, http.MethodGet, "/api/trips", nil, eve)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]repository.Trip](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/trips/"+trip.ID, nil, bob).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/trips/"+trip.ID, nil, bob).Code)
}

func TestGearAPI(t *testing.T) {
	srv := newTestServer(t)
	bob := signUp(t, srv, "bob@example.com")

	rec := do(t, srv, http.MethodPost, "/api/gear", services.GearInput{Kind: "lure", Name: "Spoon", Color: "badword"}, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/gear", services.GearInput{Kind: "lure", Brand: "Rapala", Name: "X-Rap"}, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	g := decode[repository.Gear](t, rec)

	rec = do(t, srv, http.MethodPost, "/api/gear/"+g.ID+"/copy", nil, bob)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/gear/"+g.ID, services.GearInput{Kind: "lure", Name: "X-Rap 10"}, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "X-Rap 10", decode[repository.Gear](t, rec).Name)

	rec = do(t, srv, http.MethodGet, "/api/gear", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]repository.Gear](t, rec), 2)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/gear/"+g.ID, nil, bob).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/gear/"+g.ID, nil, bob).Code)
}

func TestAdminAPI(t *testing.T) {
	srv := newTestServer(t)
	admin := signUp(t, srv, "admin@example.com")
	bob := signUp(t, srv, "bob@example.com")

	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/admin/api/users", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, "/admin/api/users", nil, bob).Code)

	rec := do(t, srv, http.MethodGet, "/admin/api/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]repository.User](t, rec)
	require.Len(t, users, 2)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, srv, http.MethodPost, "/admin/api/words/check", textToCheck{Text: "is badword allowed?"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.TextCheck{Found: true, Word: "badword"}, decode[services.TextCheck](t, rec))

	var bobID string
	for _, u := range users {
		if u.Email == "bob@example.com" {
			bobID = u.ID
		}
	}
	rec = do(t, srv, http.MethodPut, "/admin/api/users/"+bobID+"/role", roleChange{Role: "admin"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/admin/api/users", nil, bob).Code)

	rec = do(t, srv, http.MethodPost, "/admin/api/species", repository.Species{Name: "Grayling", Family: "Salmonidae"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/species", nil, nil)
	assert.Contains(t, rec.Body.String(), "Grayling")

	rec = do(t, srv, http.MethodGet, "/admin/api/audit?limit=5", nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func form(t *testing.T, srv http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestPageRedirects(t *testing.T) {
	srv := newTestServer(t)
	admin := signUp(t, srv, "admin@example.com")
	bob := signUp(t, srv, "bob@example.com")

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		location string
	}{
		{"root anonymous", "/", nil, "/login"},
		{"root signed in", "/", bob, "/journal"},
		{"journal anonymous", "/journal", nil, "/login"},
		{"admin anonymous", "/admin", nil, "/login"},
		{"admin as angler", "/admin", bob, "/journal"},
		{"login signed in", "/login", bob, "/journal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.path, nil, tt.cookie)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}

	for _, path := range []string{"/login", "/journal", "/admin"} {
		cookie := admin
		if path == "/login" {
			cookie = nil
		}
		rec := do(t, srv, http.MethodGet, path, nil, cookie)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	}
}

func TestLoginForm(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv, "bob@example.com")

	rec := form(t, srv, "/login", url.Values{"email": {"bob@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "wrong email or password")
	assert.Contains(t, rec.Body.String(), `value="bob@example.com"`)

	rec = form(t, srv, "/login", url.Values{"email": {"bob@example.com"}, "password": {"correct horse"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/journal", rec.Header().Get("Location"))
	cookie := sessionCookie(t, rec)

	rec = do(t, srv, http.MethodGet, "/journal", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No trips yet.")

	rec = form(t, srv, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestTripPage(t *testing.T) {
	srv := newTestServer(t)
	bob := signUp(t, srv, "bob@example.com")
	rec := do(t, srv, http.MethodPost, "/api/trips", services.TripInput{Title: "Perch & pike", Location: "Ladoga"}, bob)
	require.Equal(t, http.StatusCreated, rec.Code)
	trip := decode[repository.Trip](t, rec)

	rec = do(t, srv, http.MethodGet, "/trips/"+trip.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")

	rec = do(t, srv, http.MethodGet, "/trips/"+trip.ID, nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Perch &amp; pike")

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/trips/"+trip.ID+"/share", nil, bob).Code)
	rec = do(t, srv, http.MethodGet, "/trips/"+trip.ID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
