package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"

	"github.com/google/uuid"
)

type GearInput struct {
	Kind    string `json:"kind"`
	Brand   string `json:"brand"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	WeightG int64  `json:"weight_g"`
	Notes   string `json:"notes"`
}

func (in *GearInput) normalize() error {
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.Brand = strings.TrimSpace(in.Brand)
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	if in.Kind == "" {
		in.Kind = repository.GearLure
	}
	if !slices.Contains(repository.GearKinds[:], in.Kind) {
		return invalidf("unknown gear kind %q", in.Kind)
	}
	if in.Name == "" {
		return invalidf("name is required")
	}
	for _, s := range []string{in.Brand, in.Name, in.Color} {
		if len([]rune(s)) > maxTitleLength {
			return invalidf("brand, name and color must be at most %d characters long", maxTitleLength)
		}
	}
	if len([]rune(in.Notes)) > maxTextLength {
		return invalidf("notes must be at most %d characters long", maxTextLength)
	}
	if in.WeightG < 0 {
		return invalidf("weight cannot be negative")
	}
	return nil
}

func (in GearInput) fields() []Field {
	return []Field{{"brand", in.Brand}, {"name", in.Name}, {"color", in.Color}, {"notes", in.Notes}}
}

type GearService struct {
	store gearStore
	guard contentGuard
	now   func() time.Time
}

func NewGearService(store gearStore, filter *SensitiveFilter, audit auditRecorder) *GearService {
	return &GearService{
		store: store,
		guard: contentGuard{filter: filter, audit: audit},
		now:   time.Now,
	}
}

func (s *GearService) CreateGear(ctx context.Context, p Principal, in GearInput) (*repository.Gear, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("GearService::CreateGear"))
	defer span.Close()
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.guard.check(ctx, p.UserID, "gear", in.fields()...); err != nil {
		return nil, err
	}
	now := utcMillis(s.now())
	g := repository.Gear{
		ID:        uuid.NewString(),
		OwnerID:   p.UserID,
		Kind:      in.Kind,
		Brand:     in.Brand,
		Name:      in.Name,
		Color:     in.Color,
		WeightG:   in.WeightG,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveGear(ctx, g); err != nil {
		return nil, fmt.Errorf("create gear: %w", err)
	}
	return &g, nil
}

// GetGear returns gear the principal owns. Gear of others is reported as not found.
func (s *GearService) GetGear(ctx context.Context, p Principal, id string) (*repository.Gear, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("GearService::GetGear"))
	defer span.Close()
	if err := requireUser(p); err != nil {
		return nil, err
	}
	g, err := s.store.GearByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.canModify(g.OwnerID) {
		return nil, fmt.Errorf("gear %s: %w", id, repository.ErrNotFound)
	}
	return g, nil
}

func (s *GearService) UpdateGear(ctx context.Context, p Principal, id string, in GearInput) (*repository.Gear, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("GearService::UpdateGear"))
	defer span.Close()
	g, err := s.GetGear(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.guard.check(ctx, p.UserID, "gear:"+id, in.fields()...); err != nil {
		return nil, err
	}
	g.Kind, g.Brand, g.Name, g.Color = in.Kind, in.Brand, in.Name, in.Color
	g.WeightG, g.Notes = in.WeightG, in.Notes
	g.UpdatedAt = utcMillis(s.now())
	if err := s.store.SaveGear(ctx, *g); err != nil {
		return nil, fmt.Errorf("update gear: %w", err)
	}
	return g, nil
}

func (s *GearService) ListGear(ctx context.Context, p Principal) ([]repository.Gear, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("GearService::ListGear"))
	defer span.Close()
	if err := requireUser(p); err != nil {
		return nil, err
	}
	return s.store.ListGear(ctx, p.UserID)
}

func (s *GearService) DeleteGear(ctx context.Context, p Principal, id string) error {
	ctx, span := tracer.Open(ctx, tracer.Named("GearService::DeleteGear"))
	defer span.Close()
	if _, err := s.GetGear(ctx, p, id); err != nil {
		return err
	}
	return s.store.DeleteGear(ctx, id)
}

func (s *GearService) CopyGear(ctx context.Context, p Principal, id string) (*repository.Gear, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("GearService::CopyGear"))
	defer span.Close()
	source, err := s.GetGear(ctx, p, id)
	if err != nil {
		return nil, err
	}
	in := GearInput{Brand: source.Brand, Name: source.Name, Color: source.Color, Notes: source.Notes}
	if err := s.guard.check(ctx, p.UserID, "gear:"+id, in.fields()...); err != nil {
		return nil, err
	}
	now := utcMillis(s.now())
	g := *source
	g.ID = uuid.NewString()
	g.OwnerID = p.UserID
	g.CreatedAt, g.UpdatedAt = now, now
	if err := s.store.SaveGear(ctx, g); err != nil {
		return nil, fmt.Errorf("copy gear %s: %w", id, err)
	}
	return &g, nil
}
