package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mikhailche/lurelog/lib/session"
	"mikhailche/lurelog/repository"
	"mikhailche/lurelog/repository/sqlite"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store   *sqlite.Store
	filter  *SensitiveFilter
	audit   *AuditLog
	auth    *AuthService
	journal *JournalService
	gear    *GearService
	links   *ShortLinkService
	species *SpeciesService
	admin   *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "lurelog.db"), log)
	require.NoError(t, err)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, Seed(ctx, store))

	f := &fixture{store: store}
	f.filter = NewSensitiveFilter(NewWordList(writeWords(t, "# banned\nbadword\nscam-link.example\n"), log))
	f.audit = newAuditLog(store, log, 64, 0)
	t.Cleanup(func() {
		f.audit.Close()
		store.Close()
	})

	codec := session.NewCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	f.auth = NewAuthService(store, codec, f.filter, f.audit, log)
	f.auth.cost = bcrypt.MinCost
	f.journal = NewJournalService(store, f.filter, f.audit)
	f.gear = NewGearService(store, f.filter, f.audit)
	f.links = NewShortLinkService(store, f.audit, log)
	f.species, err = NewSpeciesService(ctx, store, log)
	require.NoError(t, err)
	f.admin = NewAdminService(store, f.filter, f.species, f.audit, log)
	return f
}

// register creates a user and returns the principal it authenticates as.
func (f *fixture) register(t *testing.T, email string) Principal {
	t.Helper()
	user, err := f.auth.Register(context.Background(), email, "correct horse", "angler "+email)
	require.NoError(t, err)
	return Principal{UserID: user.ID, Nickname: user.Nickname, Role: user.Role}
}

// auditKinds flushes the audit log and returns the kinds of all entries, newest first.
func (f *fixture) auditKinds(t *testing.T) []string {
	t.Helper()
	f.audit.Close()
	entries, err := f.store.ListAudit(context.Background(), 100)
	require.NoError(t, err)
	var kinds []string
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func mustTrip(t *testing.T, f *fixture, p Principal, title string) *repository.Trip {
	t.Helper()
	trip, err := f.journal.CreateTrip(context.Background(), p, TripInput{Title: title, Location: "Lake Seliger"})
	require.NoError(t, err)
	return trip
}
