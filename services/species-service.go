package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"

	"go.uber.org/zap"
)

var speciesRetryStep = 1 * time.Second

// DefaultSpecies seeds an empty catalog.
var DefaultSpecies = []repository.Species{
	{Name: "Asp", Family: "Cyprinidae"},
	{Name: "Chub", Family: "Cyprinidae"},
	{Name: "Largemouth bass", Family: "Centrarchidae"},
	{Name: "Perch", Family: "Percidae"},
	{Name: "Pike", Family: "Esocidae"},
	{Name: "Rainbow trout", Family: "Salmonidae"},
	{Name: "Smallmouth bass", Family: "Centrarchidae"},
	{Name: "Zander", Family: "Percidae"},
}

type SpeciesService struct {
	repo speciesRepo
	log  *zap.Logger

	mu    sync.RWMutex
	cache []repository.Species
}

// NewSpeciesService loads the catalog, retrying with a growing delay until it succeeds or ctx ends.
func NewSpeciesService(ctx context.Context, repo speciesRepo, log *zap.Logger) (*SpeciesService, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("NewSpeciesService"))
	defer span.Close()
	service := SpeciesService{repo: repo, log: log}
	delay := speciesRetryStep
	for {
		species, err := repo.ListSpecies(ctx)
		if err == nil {
			service.cache = species
			break
		}
		log.Warn("Could not load species catalog, retrying", zap.Duration("delay", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("load species catalog: %w", err)
		case <-time.After(delay):
		}
		delay += speciesRetryStep
	}
	return &service, nil
}

func (s *SpeciesService) Species() []repository.Species {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cache)
}

func (s *SpeciesService) Known(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.cache, func(sp repository.Species) bool {
		return strings.EqualFold(sp.Name, name)
	})
}

// Add persists the species and reloads the cache.
func (s *SpeciesService) Add(ctx context.Context, sp repository.Species) error {
	ctx, span := tracer.Open(ctx, tracer.Named("SpeciesService::Add"))
	defer span.Close()
	sp.Name = strings.TrimSpace(sp.Name)
	sp.Family = strings.TrimSpace(sp.Family)
	if sp.Name == "" {
		return invalidf("species name is required")
	}
	if err := s.repo.SaveSpecies(ctx, sp); err != nil {
		return fmt.Errorf("add species: %w", err)
	}
	species, err := s.repo.ListSpecies(ctx)
	if err != nil {
		return fmt.Errorf("refresh species: %w", err)
	}
	s.mu.Lock()
	s.cache = species
	s.mu.Unlock()
	return nil
}

// Seed stores DefaultSpecies. Existing entries are overwritten with the same values.
func Seed(ctx context.Context, repo speciesRepo) error {
	for _, sp := range DefaultSpecies {
		if err := repo.SaveSpecies(ctx, sp); err != nil {
			return fmt.Errorf("seed species: %w", err)
		}
	}
	return nil
}
