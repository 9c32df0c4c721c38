package catalog

import (
	"context"

	"github.com/amirasaad/topup/pkg/domain/catalog"
	"github.com/google/uuid"
)

// Repository defines read access to games and their packs, plus the
// inserts used for seeding.
type Repository interface {
	CreateGame(ctx context.Context, g *catalog.Game) error
	GetGame(ctx context.Context, id uuid.UUID) (*catalog.Game, error)
	ListGames(ctx context.Context, activeOnly bool) ([]*catalog.Game, error)
}
