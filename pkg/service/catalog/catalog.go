// Package catalog serves read access to games and packs.
package catalog

import (
	"context"
	"log/slog"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/catalog"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/google/uuid"
)

type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uow: uow, logger: logger.With("service", "catalog")}
}

// GetGame returns a game. Unless includeInactive is set, inactive games
// are reported as not found and inactive packs are dropped.
func (s *Service) GetGame(ctx context.Context, id uuid.UUID, includeInactive bool) (*catalog.Game, error) {
	repo, err := s.uow.CatalogRepository()
	if err != nil {
		return nil, err
	}
	g, err := repo.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if includeInactive {
		return g, nil
	}
	if !g.IsActive {
		return nil, domain.ErrGameNotFound
	}
	return activePacks(g), nil
}

// ListGames returns the games on sale, or every game for admins.
func (s *Service) ListGames(ctx context.Context, includeInactive bool) ([]*catalog.Game, error) {
	repo, err := s.uow.CatalogRepository()
	if err != nil {
		return nil, err
	}
	games, err := repo.ListGames(ctx, !includeInactive)
	if err != nil {
		return nil, err
	}
	if includeInactive {
		return games, nil
	}
	out := make([]*catalog.Game, 0, len(games))
	for _, g := range games {
		out = append(out, activePacks(g))
	}
	return out, nil
}

func activePacks(g *catalog.Game) *catalog.Game {
	cp := *g
	cp.Packs = make([]catalog.Pack, 0, len(g.Packs))
	for _, p := range g.Packs {
		if p.IsActive {
			cp.Packs = append(cp.Packs, p)
		}
	}
	return &cp
}
