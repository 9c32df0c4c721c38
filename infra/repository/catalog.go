package repository

import (
	"context"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/catalog"
	repo "github.com/amirasaad/topup/pkg/repository/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *gorm.DB) repo.Repository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateGame(ctx context.Context, g *catalog.Game) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(gameToModel(g)).Error
	})
}

func (r *catalogRepository) GetGame(ctx context.Context, id uuid.UUID) (*catalog.Game, error) {
	var m Game
	err := r.db.WithContext(ctx).
		Preload("Packs", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrGameNotFound)
	}
	return gameFromModel(&m), nil
}

func (r *catalogRepository) ListGames(ctx context.Context, activeOnly bool) ([]*catalog.Game, error) {
	var models []Game
	q := r.db.WithContext(ctx).
		Preload("Packs", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	games := make([]*catalog.Game, 0, len(models))
	for i := range models {
		games = append(games, gameFromModel(&models[i]))
	}
	return games, nil
}
