package catalog

import (
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/catalog"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/google/uuid"
)

// PackDTO is a pack priced for the caller. Cost and tier prices are only
// shown to admins.
type PackDTO struct {
	PackID        string       `json:"packId"`
	Name          string       `json:"name"`
	Amount        int64        `json:"amount"`
	Price         domain.Paise `json:"price"`
	PriceDisplay  string       `json:"priceDisplay"`
	RetailPrice   domain.Paise `json:"retailPrice,omitempty"`
	ResellerPrice domain.Paise `json:"resellerPrice,omitempty"`
	CostPrice     domain.Paise `json:"costPrice,omitempty"`
	IsActive      bool         `json:"isActive"`
}

type GameDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	APIProvider string    `json:"apiProvider,omitempty"`
	Region      string    `json:"region,omitempty"`
	IsActive    bool      `json:"isActive"`
	Packs       []PackDTO `json:"packs"`
}

// ValidateInput is the in-game account to look up.
type ValidateInput struct {
	PackID   string `json:"packId"`
	UserID   string `json:"userId" validate:"required"`
	ServerID string `json:"serverId"`
}

// ToGameDTO prices g for role.
func ToGameDTO(g *catalog.Game, role user.Role) GameDTO {
	admin := role == user.RoleAdmin
	out := GameDTO{
		ID:       g.ID,
		Name:     g.Name,
		Region:   g.Region,
		IsActive: g.IsActive,
		Packs:    make([]PackDTO, 0, len(g.Packs)),
	}
	if admin {
		out.APIProvider = g.APIProvider
	}
	for _, p := range g.Packs {
		price := p.PriceFor(role)
		dto := PackDTO{
			PackID:       p.PackID,
			Name:         p.Name,
			Amount:       p.Amount,
			Price:        price,
			PriceDisplay: price.String(),
			IsActive:     p.IsActive,
		}
		if admin {
			dto.RetailPrice = p.RetailPrice
			dto.ResellerPrice = p.ResellerPrice
			dto.CostPrice = p.CostPrice
		}
		out.Packs = append(out.Packs, dto)
	}
	return out
}
