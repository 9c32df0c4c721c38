// Package catalog holds the purchasable games and their packs.
package catalog

import (
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/google/uuid"
)

// Pack is one purchasable unit of in-game currency. PackID doubles as the
// provider's product/service identifier.
type Pack struct {
	PackID        string       `json:"packId"`
	Name          string       `json:"name"`
	Amount        int64        `json:"amount"`
	RetailPrice   domain.Paise `json:"retailPrice"`
	ResellerPrice domain.Paise `json:"resellerPrice"`
	CostPrice     domain.Paise `json:"costPrice"`
	IsActive      bool         `json:"isActive"`
}

// PriceFor returns the price a user with the given role must pay.
func (p Pack) PriceFor(role user.Role) domain.Paise {
	if role == user.RoleReseller && p.ResellerPrice > 0 {
		return p.ResellerPrice
	}
	return p.RetailPrice
}

// Game groups packs that are fulfilled by one provider.
type Game struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	APIProvider string    `json:"apiProvider"`
	APIGameID   string    `json:"apiGameId"`
	Region      string    `json:"region,omitempty"`
	IsActive    bool      `json:"isActive"`
	Packs       []Pack    `json:"packs"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FindPack returns the pack with packID, or nil.
func (g *Game) FindPack(packID string) *Pack {
	for i := range g.Packs {
		if g.Packs[i].PackID == packID {
			return &g.Packs[i]
		}
	}
	return nil
}
