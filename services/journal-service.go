package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"

	"github.com/google/uuid"
)

const (
	maxTitleLength = 120
	maxTextLength  = 4000
)

type TripInput struct {
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

func (in *TripInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	if in.Title == "" {
		return invalidf("title is required")
	}
	if len([]rune(in.Title)) > maxTitleLength || len([]rune(in.Location)) > maxTitleLength {
		return invalidf("title and location must be at most %d characters long", maxTitleLength)
	}
	if len([]rune(in.Notes)) > maxTextLength {
		return invalidf("notes must be at most %d characters long", maxTextLength)
	}
	in.StartedAt, in.EndedAt = utcMillis(in.StartedAt), utcMillis(in.EndedAt)
	return nil
}

// checkTripDates runs on the record as it will be stored.
func checkTripDates(trip repository.Trip) error {
	if !trip.EndedAt.IsZero() && trip.EndedAt.Before(trip.StartedAt) {
		return invalidf("trip cannot end before it starts")
	}
	return nil
}

func (in TripInput) fields() []Field {
	return []Field{{"title", in.Title}, {"location", in.Location}, {"notes", in.Notes}}
}

type CatchInput struct {
	Species  string    `json:"species"`
	LengthCm float64   `json:"length_cm"`
	WeightG  int64     `json:"weight_g"`
	GearID   string    `json:"gear_id"`
	Notes    string    `json:"notes"`
	Released bool      `json:"released"`
	CaughtAt time.Time `json:"caught_at"`
}

func (in *CatchInput) normalize() error {
	in.Species = strings.TrimSpace(in.Species)
	in.GearID = strings.TrimSpace(in.GearID)
	if in.Species == "" {
		return invalidf("species is required")
	}
	if len([]rune(in.Species)) > maxTitleLength {
		return invalidf("species must be at most %d characters long", maxTitleLength)
	}
	if in.LengthCm < 0 || in.WeightG < 0 {
		return invalidf("length and weight cannot be negative")
	}
	if len([]rune(in.Notes)) > maxTextLength {
		return invalidf("notes must be at most %d characters long", maxTextLength)
	}
	in.CaughtAt = utcMillis(in.CaughtAt)
	return nil
}

func (in CatchInput) fields() []Field {
	return []Field{{"species", in.Species}, {"notes", in.Notes}}
}

type journalStore interface {
	tripStore
	catchStore
	GearByID(ctx context.Context, id string) (*repository.Gear, error)
}

// JournalService keeps trips and the catches logged on them.
type JournalService struct {
	store journalStore
	guard contentGuard
	now   func() time.Time
}

func NewJournalService(store journalStore, filter *SensitiveFilter, audit auditRecorder) *JournalService {
	return &JournalService{
		store: store,
		guard: contentGuard{filter: filter, audit: audit},
		now:   time.Now,
	}
}

func utcMillis(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}

func (s *JournalService) stamp() time.Time {
	return utcMillis(s.now())
}

func (s *JournalService) CreateTrip(ctx context.Context, p Principal, in TripInput) (*repository.Trip, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::CreateTrip"))
	defer span.Close()
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.guard.check(ctx, p.UserID, "trip", in.fields()...); err != nil {
		return nil, err
	}
	now := s.stamp()
	trip := repository.Trip{
		ID:        uuid.NewString(),
		OwnerID:   p.UserID,
		Title:     in.Title,
		Location:  in.Location,
		Notes:     in.Notes,
		StartedAt: in.StartedAt,
		EndedAt:   in.EndedAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if trip.StartedAt.IsZero() {
		trip.StartedAt = now
	}
	if err := checkTripDates(trip); err != nil {
		return nil, err
	}
	if err := s.store.SaveTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return &trip, nil
}

// ownTrip loads a trip the principal may change.
func (s *JournalService) ownTrip(ctx context.Context, p Principal, id string) (*repository.Trip, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	trip, err := s.store.TripByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.canModify(trip.OwnerID) {
		return nil, fmt.Errorf("trip %s: %w", id, ErrForbidden)
	}
	return trip, nil
}

func (s *JournalService) UpdateTrip(ctx context.Context, p Principal, id string, in TripInput) (*repository.Trip, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::UpdateTrip"))
	defer span.Close()
	trip, err := s.ownTrip(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.guard.check(ctx, p.UserID, "trip:"+id, in.fields()...); err != nil {
		return nil, err
	}
	trip.Title, trip.Location, trip.Notes = in.Title, in.Location, in.Notes
	if !in.StartedAt.IsZero() {
		trip.StartedAt = in.StartedAt
	}
	trip.EndedAt = in.EndedAt
	if err := checkTripDates(*trip); err != nil {
		return nil, err
	}
	trip.UpdatedAt = s.stamp()
	if err := s.store.SaveTrip(ctx, *trip); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}
	return trip, nil
}

// GetTrip returns a trip visible to p: a public one or one p may change.
// Hidden trips are reported as not found.
func (s *JournalService) GetTrip(ctx context.Context, p Principal, id string) (*repository.Trip, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::GetTrip"))
	defer span.Close()
	trip, err := s.store.TripByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !trip.Public && !p.canModify(trip.OwnerID) {
		return nil, fmt.Errorf("trip %s: %w", id, repository.ErrNotFound)
	}
	return trip, nil
}

func (s *JournalService) ListTrips(ctx context.Context, p Principal) ([]repository.Trip, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::ListTrips"))
	defer span.Close()
	if err := requireUser(p); err != nil {
		return nil, err
	}
	return s.store.ListTrips(ctx, p.UserID)
}

func (s *JournalService) DeleteTrip(ctx context.Context, p Principal, id string) error {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::DeleteTrip"))
	defer span.Close()
	if _, err := s.ownTrip(ctx, p, id); err != nil {
		return err
	}
	return s.store.DeleteTrip(ctx, id)
}

// CopyTrip creates a new private trip of p from any trip p can see. Catches stay with the original.
func (s *JournalService) CopyTrip(ctx context.Context, p Principal, id string) (*repository.Trip, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::CopyTrip"))
	defer span.Close()
	if err := requireUser(p); err != nil {
		return nil, err
	}
	source, err := s.GetTrip(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.check(ctx, p.UserID, "trip:"+id,
		TripInput{Title: source.Title, Location: source.Location, Notes: source.Notes}.fields()...); err != nil {
		return nil, err
	}
	now := s.stamp()
	trip := *source
	trip.ID = uuid.NewString()
	trip.OwnerID = p.UserID
	trip.Public = false
	trip.CreatedAt, trip.UpdatedAt = now, now
	if err := s.store.SaveTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("copy trip %s: %w", id, err)
	}
	return &trip, nil
}

func (s *JournalService) checkGear(ctx context.Context, p Principal, gearID string) error {
	if gearID == "" {
		return nil
	}
	gear, err := s.store.GearByID(ctx, gearID)
	if errors.Is(err, repository.ErrNotFound) {
		return invalidf("gear %s does not exist", gearID)
	}
	if err != nil {
		return err
	}
	if !p.canModify(gear.OwnerID) {
		return invalidf("gear %s does not belong to you", gearID)
	}
	return nil
}

func (s *JournalService) AddCatch(ctx context.Context, p Principal, tripID string, in CatchInput) (*repository.Catch, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::AddCatch"))
	defer span.Close()
	trip, err := s.ownTrip(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.checkGear(ctx, p, in.GearID); err != nil {
		return nil, err
	}
	if err := s.guard.check(ctx, p.UserID, "trip:"+tripID, in.fields()...); err != nil {
		return nil, err
	}
	now := s.stamp()
	c := repository.Catch{
		ID:        uuid.NewString(),
		TripID:    trip.ID,
		OwnerID:   trip.OwnerID,
		Species:   in.Species,
		LengthCm:  in.LengthCm,
		WeightG:   in.WeightG,
		GearID:    in.GearID,
		Notes:     in.Notes,
		Released:  in.Released,
		CaughtAt:  in.CaughtAt,
		CreatedAt: now,
	}
	if c.CaughtAt.IsZero() {
		c.CaughtAt = now
	}
	if err := s.store.SaveCatch(ctx, c); err != nil {
		return nil, fmt.Errorf("add catch: %w", err)
	}
	return &c, nil
}

func (s *JournalService) ownCatch(ctx context.Context, p Principal, id string) (*repository.Catch, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	c, err := s.store.CatchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.canModify(c.OwnerID) {
		return nil, fmt.Errorf("catch %s: %w", id, ErrForbidden)
	}
	return c, nil
}

func (s *JournalService) UpdateCatch(ctx context.Context, p Principal, id string, in CatchInput) (*repository.Catch, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::UpdateCatch"))
	defer span.Close()
	c, err := s.ownCatch(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.checkGear(ctx, p, in.GearID); err != nil {
		return nil, err
	}
	if err := s.guard.check(ctx, p.UserID, "catch:"+id, in.fields()...); err != nil {
		return nil, err
	}
	c.Species, c.LengthCm, c.WeightG = in.Species, in.LengthCm, in.WeightG
	c.GearID, c.Notes, c.Released = in.GearID, in.Notes, in.Released
	if !in.CaughtAt.IsZero() {
		c.CaughtAt = in.CaughtAt
	}
	if err := s.store.SaveCatch(ctx, *c); err != nil {
		return nil, fmt.Errorf("update catch: %w", err)
	}
	return c, nil
}

func (s *JournalService) DeleteCatch(ctx context.Context, p Principal, id string) error {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::DeleteCatch"))
	defer span.Close()
	if _, err := s.ownCatch(ctx, p, id); err != nil {
		return err
	}
	return s.store.DeleteCatch(ctx, id)
}

// ListCatches lists catches of a trip visible to p.
func (s *JournalService) ListCatches(ctx context.Context, p Principal, tripID string) ([]repository.Catch, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("JournalService::ListCatches"))
	defer span.Close()
	if _, err := s.GetTrip(ctx, p, tripID); err != nil {
		return nil, err
	}
	return s.store.ListCatches(ctx, tripID)
}
