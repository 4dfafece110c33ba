package services

import (
	"context"
	"fmt"
	"strings"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"

	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type adminStore interface {
	userStore
	tripStore
	gearStore
}

// AdminService backs the admin dashboard. Every operation requires the admin role.
type AdminService struct {
	store   adminStore
	filter  *SensitiveFilter
	species *SpeciesService
	audit   *AuditLog
	log     *zap.Logger
}

func NewAdminService(store adminStore, filter *SensitiveFilter, species *SpeciesService, audit *AuditLog, log *zap.Logger) *AdminService {
	return &AdminService{store: store, filter: filter, species: species, audit: audit, log: log}
}

func (s *AdminService) ListUsers(ctx context.Context, p Principal) ([]repository.User, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("AdminService::ListUsers"))
	defer span.Close()
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

func (s *AdminService) SetRole(ctx context.Context, p Principal, userID, role string) (*repository.User, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("AdminService::SetRole"))
	defer span.Close()
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if role != repository.RoleAngler && role != repository.RoleAdmin {
		return nil, invalidf("unknown role %q", role)
	}
	if userID == p.UserID && role != repository.RoleAdmin {
		return nil, invalidf("you cannot take the admin role from yourself")
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	previous := user.Role
	user.Role = role
	if err := s.store.SaveUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	s.log.Info("Changed user role", zap.String("user", userID), zap.String("from", previous), zap.String("to", role))
	s.audit.Record(ctx, p.UserID, AuditRoleChanged, "user:"+userID, previous+" -> "+role)
	return user, nil
}

func (s *AdminService) ListAllTrips(ctx context.Context, p Principal) ([]repository.Trip, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("AdminService::ListAllTrips"))
	defer span.Close()
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.store.ListTrips(ctx, "")
}

func (s *AdminService) DeleteTrip(ctx context.Context, p Principal, id string) error {
	ctx, span := tracer.Open(ctx, tracer.Named("AdminService::DeleteTrip"))
	defer span.Close()
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := s.store.DeleteTrip(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, p.UserID, AuditTripDeleted, "trip:"+id, "")
	return nil
}

func (s *AdminService) DeleteGear(ctx context.Context, p Principal, id string) error {
	ctx, span := tracer.Open(ctx, tracer.Named("AdminService::DeleteGear"))
	defer span.Close()
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := s.store.DeleteGear(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, p.UserID, AuditGearDeleted, "gear:"+id, "")
	return nil
}

func (s *AdminService) RecentAudit(ctx context.Context, p Principal, limit int) ([]repository.AuditEntry, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	limit = min(limit, maxAuditLimit)
	return s.audit.Recent(ctx, limit)
}

type TextCheck struct {
	Found bool   `json:"found"`
	Word  string `json:"word,omitempty"`
}

// CheckText shows admins which banned word, if any, the text trips on.
func (s *AdminService) CheckText(_ context.Context, p Principal, text string) (TextCheck, error) {
	if err := requireAdmin(p); err != nil {
		return TextCheck{}, err
	}
	word, found := s.filter.DetectMatch(text)
	return TextCheck{Found: found, Word: word}, nil
}

// AddSpecies extends the catalog. Names are shown to every angler, so they are screened like any user text.
func (s *AdminService) AddSpecies(ctx context.Context, p Principal, sp repository.Species) error {
	ctx, span := tracer.Open(ctx, tracer.Named("AdminService::AddSpecies"))
	defer span.Close()
	if err := requireAdmin(p); err != nil {
		return err
	}
	sp.Name, sp.Family = strings.TrimSpace(sp.Name), strings.TrimSpace(sp.Family)
	guard := contentGuard{filter: s.filter, audit: s.audit}
	if err := guard.check(ctx, p.UserID, "species", Field{"name", sp.Name}, Field{"family", sp.Family}); err != nil {
		return err
	}
	if s.species.Known(sp.Name) {
		return fmt.Errorf("species %q is already in the catalog: %w", sp.Name, ErrConflict)
	}
	if err := s.species.Add(ctx, sp); err != nil {
		return err
	}
	s.audit.Record(ctx, p.UserID, AuditSpeciesAdded, "species:"+sp.Name, sp.Family)
	return nil
}
