package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"mikhailche/lurelog/lib/session"
	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores the rest
	maxNicknameLength = 64
)

type AuthService struct {
	users userStore
	codec *session.Codec
	guard contentGuard
	audit auditRecorder
	log   *zap.Logger

	// serializes registrations so that email uniqueness and the first-admin rule hold
	registerMu sync.Mutex
	cost       int
	now        func() time.Time
}

func NewAuthService(users userStore, codec *session.Codec, filter *SensitiveFilter, audit auditRecorder, log *zap.Logger) *AuthService {
	return &AuthService{
		users: users,
		codec: codec,
		guard: contentGuard{filter: filter, audit: audit},
		audit: audit,
		log:   log,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, email, password, nickname string) (*repository.User, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("AuthService::Register"))
	defer span.Close()

	email = normalizeEmail(email)
	nickname = strings.TrimSpace(nickname)
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
		return nil, invalidf("email %q is not valid", email)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, invalidf("password must be from %d to %d characters long", minPasswordLength, maxPasswordLength)
	}
	if nickname == "" || len([]rune(nickname)) > maxNicknameLength {
		return nil, invalidf("nickname must be from 1 to %d characters long", maxNicknameLength)
	}
	if err := s.guard.check(ctx, "", "user:"+email, Field{"nickname", nickname}); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()
	if _, err := s.users.UserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("user %s: %w", email, ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}
	existing, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	user := repository.User{
		ID:           uuid.NewString(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(hash),
		Role:         repository.RoleAngler,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if len(existing) == 0 {
		user.Role = repository.RoleAdmin
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.log.Info("Registered user", zap.String("user", user.ID), zap.String("role", user.Role))
	s.audit.Record(ctx, user.ID, AuditUserRegistered, "user:"+user.ID, user.Role)
	return &user, nil
}

// Login checks the password and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *repository.User, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("AuthService::Login"))
	defer span.Close()

	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, _, err := s.codec.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue session: %w", err)
	}
	return token, user, nil
}

// Authenticate resolves a session token into the current state of its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("AuthService::Authenticate"))
	defer span.Close()

	claims, err := s.codec.Decode(token)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	user, err := s.users.UserByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return Principal{}, fmt.Errorf("session of deleted user: %w", ErrUnauthenticated)
	}
	if err != nil {
		return Principal{}, fmt.Errorf("authenticate: %w", err)
	}
	return Principal{UserID: user.ID, Nickname: user.Nickname, Role: user.Role}, nil
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.codec.TTL()
}
