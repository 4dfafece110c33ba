package services

import (
	"context"

	"mikhailche/lurelog/repository"
)

type userStore interface {
	SaveUser(ctx context.Context, u repository.User) error
	UserByID(ctx context.Context, id string) (*repository.User, error)
	UserByEmail(ctx context.Context, email string) (*repository.User, error)
	ListUsers(ctx context.Context) ([]repository.User, error)
}

type tripStore interface {
	SaveTrip(ctx context.Context, t repository.Trip) error
	TripByID(ctx context.Context, id string) (*repository.Trip, error)
	ListTrips(ctx context.Context, ownerID string) ([]repository.Trip, error)
	DeleteTrip(ctx context.Context, id string) error
}

type catchStore interface {
	SaveCatch(ctx context.Context, c repository.Catch) error
	CatchByID(ctx context.Context, id string) (*repository.Catch, error)
	ListCatches(ctx context.Context, tripID string) ([]repository.Catch, error)
	DeleteCatch(ctx context.Context, id string) error
}

type gearStore interface {
	SaveGear(ctx context.Context, g repository.Gear) error
	GearByID(ctx context.Context, id string) (*repository.Gear, error)
	ListGear(ctx context.Context, ownerID string) ([]repository.Gear, error)
	DeleteGear(ctx context.Context, id string) error
}

type shortLinkStore interface {
	SaveShortLink(ctx context.Context, l repository.ShortLink) error
	ShortLinkByCode(ctx context.Context, code string) (*repository.ShortLink, error)
	CountShortLinkHit(ctx context.Context, code string) error
}

type speciesRepo interface {
	SaveSpecies(ctx context.Context, sp repository.Species) error
	ListSpecies(ctx context.Context) ([]repository.Species, error)
}

type auditStore interface {
	AppendAudit(ctx context.Context, e repository.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]repository.AuditEntry, error)
}

// Store is everything the services need from a storage backend.
type Store interface {
	userStore
	tripStore
	catchStore
	gearStore
	shortLinkStore
	speciesRepo
	auditStore
	Init(ctx context.Context) error
	Close() error
}
