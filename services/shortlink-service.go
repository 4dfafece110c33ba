package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"

	"go.uber.org/zap"
)

const shortCodeLength = 7

var shortCodeAlphabet = []rune("23456789abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ")

func generateShortCode(length int) string {
	code := make([]rune, 0, length)
	for i := 0; i < length; i++ {
		code = append(code, shortCodeAlphabet[rand.IntN(len(shortCodeAlphabet))])
	}
	return string(code)
}

type shareStore interface {
	shortLinkStore
	SaveTrip(ctx context.Context, t repository.Trip) error
	TripByID(ctx context.Context, id string) (*repository.Trip, error)
}

type ShortLinkService struct {
	store shareStore
	audit auditRecorder
	log   *zap.Logger
	now   func() time.Time
}

func NewShortLinkService(store shareStore, audit auditRecorder, log *zap.Logger) *ShortLinkService {
	return &ShortLinkService{store: store, audit: audit, log: log, now: time.Now}
}

func TripPath(id string) string {
	return "/trips/" + id
}

// ShareTrip makes the trip public and creates a new short link to its page.
func (s *ShortLinkService) ShareTrip(ctx context.Context, p Principal, tripID string) (*repository.ShortLink, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("ShortLinkService::ShareTrip"))
	defer span.Close()
	if err := requireUser(p); err != nil {
		return nil, err
	}
	trip, err := s.store.TripByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !p.canModify(trip.OwnerID) {
		return nil, fmt.Errorf("trip %s: %w", tripID, ErrForbidden)
	}
	now := utcMillis(s.now())
	if !trip.Public {
		trip.Public = true
		trip.UpdatedAt = now
		if err := s.store.SaveTrip(ctx, *trip); err != nil {
			return nil, fmt.Errorf("share trip %s: %w", tripID, err)
		}
	}
	code, err := s.freeCode(ctx)
	if err != nil {
		return nil, err
	}
	link := repository.ShortLink{Code: code, Target: TripPath(trip.ID), OwnerID: p.UserID, CreatedAt: now}
	if err := s.store.SaveShortLink(ctx, link); err != nil {
		return nil, fmt.Errorf("share trip %s: %w", tripID, err)
	}
	s.audit.Record(ctx, p.UserID, AuditTripShared, "trip:"+trip.ID, code)
	return &link, nil
}

func (s *ShortLinkService) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		code := generateShortCode(shortCodeLength)
		_, err := s.store.ShortLinkByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check short code: %w", err)
		}
	}
	return "", fmt.Errorf("no free short code after 5 attempts: %w", ErrConflict)
}

// Resolve returns the target of a short link. A failed hit counter update is only logged.
// The counter is updated even when the client has already gone away.
func (s *ShortLinkService) Resolve(ctx context.Context, code string) (string, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("ShortLinkService::Resolve"))
	defer span.Close()
	if len(code) != shortCodeLength {
		return "", fmt.Errorf("short link %q: %w", code, repository.ErrNotFound)
	}
	link, err := s.store.ShortLinkByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if err := s.store.CountShortLinkHit(tracer.Background(ctx), code); err != nil {
		s.log.Warn("Could not count short link hit", zap.String("code", code), zap.Error(err))
	}
	return link.Target, nil
}
