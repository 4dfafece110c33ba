package services

import (
	"context"

	"mikhailche/lurelog/repository"
)

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID   string
	Nickname string
	Role     string
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == repository.RoleAdmin
}

func (p Principal) canModify(ownerID string) bool {
	return p.IsAdmin() || (p.Authenticated() && p.UserID == ownerID)
}

func requireUser(p Principal) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(p Principal) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.Authenticated()
}
