package services

import (
	"context"
	"testing"

	"mikhailche/lurelog/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMakesFirstUserAdmin(t *testing.T) {
	f := newFixture(t)
	first := f.register(t, "first@example.com")
	second := f.register(t, "second@example.com")

	assert.Equal(t, repository.RoleAdmin, first.Role)
	assert.Equal(t, repository.RoleAngler, second.Role)
}

func TestRegisterNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.auth.Register(ctx, "  Bob@Example.COM ", "correct horse", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	_, err = f.auth.Register(ctx, "bob@example.com", "another pass", "Bobby")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name                      string
		email, password, nickname string
	}{
		{"bad email", "not-an-email", "correct horse", "Bob"},
		{"short password", "bob@example.com", "short", "Bob"},
		{"empty nickname", "bob@example.com", "correct horse", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tt.email, tt.password, tt.nickname)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterRejectsBannedNickname(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), "troll@example.com", "correct horse", "the badword guy")
	require.ErrorIs(t, err, ErrContentRejected)
	assert.Contains(t, err.Error(), "nickname")

	users, err := f.store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, []string{AuditContentRejected}, f.auditKinds(t))
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "bob@example.com")

	_, _, err := f.auth.Login(ctx, "bob@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = f.auth.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, user, err := f.auth.Login(ctx, "BOB@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, user.ID)

	p, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered, p)

	_, err = f.auth.Authenticate(ctx, "garbage-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateSeesRoleChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin@example.com")
	bob := f.register(t, "bob@example.com")
	token, _, err := f.auth.Login(ctx, "bob@example.com", "correct horse")
	require.NoError(t, err)

	_, err = f.admin.SetRole(ctx, admin, bob.UserID, repository.RoleAdmin)
	require.NoError(t, err)

	p, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}
