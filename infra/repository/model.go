package repository

import (
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/catalog"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/google/uuid"
)

// User represents a persisted user.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:varchar(128);not null"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone         string    `gorm:"type:varchar(32)"`
	Password      string    `gorm:"type:varchar(255);not null"`
	Role          string    `gorm:"type:varchar(16);not null;default:'user'"`
	WalletBalance int64     `gorm:"column:wallet_balance;not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (User) TableName() string { return "users" }

// Game represents a persisted game with its packs.
type Game struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(128);not null"`
	APIProvider string    `gorm:"column:api_provider;type:varchar(32);not null"`
	APIGameID   string    `gorm:"column:api_game_id;type:varchar(64);not null"`
	Region      string    `gorm:"type:varchar(32)"`
	IsActive    bool      `gorm:"not null"`
	Packs       []Pack    `gorm:"foreignKey:GameID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Game) TableName() string { return "games" }

// Pack represents a persisted pack row.
type Pack struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	GameID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_packs_game_pack"`
	PackID        string    `gorm:"column:pack_id;type:varchar(64);not null;uniqueIndex:idx_packs_game_pack"`
	Name          string    `gorm:"type:varchar(128);not null"`
	Amount        int64     `gorm:"not null"`
	RetailPrice   int64     `gorm:"not null"`
	ResellerPrice int64     `gorm:"not null;default:0"`
	CostPrice     int64     `gorm:"not null"`
	IsActive      bool      `gorm:"not null"`
}

func (Pack) TableName() string { return "packs" }

// Order represents a persisted order; snapshot structs are flattened.
type Order struct {
	ID                  string         `gorm:"type:varchar(40);primaryKey"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;index"`
	GameID              uuid.UUID      `gorm:"type:uuid;not null"`
	PackID              string         `gorm:"column:pack_id;type:varchar(64);not null"`
	PackName            string         `gorm:"type:varchar(128);not null"`
	PackAmount          int64          `gorm:"not null"`
	Price               int64          `gorm:"not null"`
	CostPrice           int64          `gorm:"not null"`
	DestUserID          string         `gorm:"column:dest_user_id;type:varchar(64);not null"`
	DestServerID        string         `gorm:"column:dest_server_id;type:varchar(64)"`
	DestUsername        string         `gorm:"type:varchar(128)"`
	Contact             string         `gorm:"type:varchar(32)"`
	PaymentMethod       string         `gorm:"type:varchar(16);not null"`
	PaymentRef          string         `gorm:"type:varchar(64);index"`
	PaymentAmount       int64          `gorm:"not null"`
	Currency            string         `gorm:"type:varchar(3);not null;default:'INR'"`
	Charged             bool           `gorm:"not null;default:false"`
	Provider            string         `gorm:"type:varchar(32);not null"`
	ExternalOrderID     string         `gorm:"column:external_order_id;type:varchar(64)"`
	ProviderResponse    map[string]any `gorm:"type:text;serializer:json"`
	Status              string         `gorm:"type:varchar(32);not null;index"`
	Profit              int64          `gorm:"not null"`
	FailureReason       string         `gorm:"type:text"`
	NeedsReconciliation bool           `gorm:"not null;default:false"`
	CompletedAt         *time.Time
	Refund              *order.RefundInfo `gorm:"type:text;serializer:json"`
	CreatedAt           time.Time         `gorm:"index"`
	UpdatedAt           time.Time
}

func (Order) TableName() string { return "orders" }

// WalletTransaction represents a persisted ledger entry.
type WalletTransaction struct {
	ID             string         `gorm:"type:varchar(40);primaryKey"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind           string         `gorm:"type:varchar(16);not null"`
	Status         string         `gorm:"type:varchar(16);not null;index"`
	Amount         int64          `gorm:"not null"`
	Description    string         `gorm:"type:text"`
	RelatedOrderID string         `gorm:"type:varchar(40);index"`
	ExternalRef    string         `gorm:"type:varchar(64);index"`
	ReversalOf     string         `gorm:"type:varchar(40);index"`
	Metadata       map[string]any `gorm:"type:text;serializer:json"`
	BalanceAfter   int64          `gorm:"column:balance_after_transaction;not null;default:0"`
	CreatedAt      time.Time      `gorm:"index"`
	UpdatedAt      time.Time
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }

// Models lists every persisted model, in dependency order.
func Models() []any {
	return []any{&User{}, &Game{}, &Pack{}, &Order{}, &WalletTransaction{}}
}

func userToModel(u *user.User) *User {
	return &User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Password:      u.Password,
		Role:          string(u.Role),
		WalletBalance: int64(u.WalletBalance),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func userFromModel(m *User) *user.User {
	return &user.User{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		Password:      m.Password,
		Role:          user.Role(m.Role),
		WalletBalance: domain.Paise(m.WalletBalance),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func gameToModel(g *catalog.Game) *Game {
	m := &Game{
		ID:          g.ID,
		Name:        g.Name,
		APIProvider: g.APIProvider,
		APIGameID:   g.APIGameID,
		Region:      g.Region,
		IsActive:    g.IsActive,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	for _, p := range g.Packs {
		m.Packs = append(m.Packs, Pack{
			GameID:        g.ID,
			PackID:        p.PackID,
			Name:          p.Name,
			Amount:        p.Amount,
			RetailPrice:   int64(p.RetailPrice),
			ResellerPrice: int64(p.ResellerPrice),
			CostPrice:     int64(p.CostPrice),
			IsActive:      p.IsActive,
		})
	}
	return m
}

func gameFromModel(m *Game) *catalog.Game {
	g := &catalog.Game{
		ID:          m.ID,
		Name:        m.Name,
		APIProvider: m.APIProvider,
		APIGameID:   m.APIGameID,
		Region:      m.Region,
		IsActive:    m.IsActive,
		Packs:       make([]catalog.Pack, 0, len(m.Packs)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, p := range m.Packs {
		g.Packs = append(g.Packs, catalog.Pack{
			PackID:        p.PackID,
			Name:          p.Name,
			Amount:        p.Amount,
			RetailPrice:   domain.Paise(p.RetailPrice),
			ResellerPrice: domain.Paise(p.ResellerPrice),
			CostPrice:     domain.Paise(p.CostPrice),
			IsActive:      p.IsActive,
		})
	}
	return g
}

func orderToModel(o *order.Order) *Order {
	return &Order{
		ID:                  o.ID,
		UserID:              o.UserID,
		GameID:              o.GameID,
		PackID:              o.Pack.PackID,
		PackName:            o.Pack.Name,
		PackAmount:          o.Pack.Amount,
		Price:               int64(o.Pack.Price),
		CostPrice:           int64(o.Pack.CostPrice),
		DestUserID:          o.Destination.UserID,
		DestServerID:        o.Destination.ServerID,
		DestUsername:        o.Destination.Username,
		Contact:             o.Contact,
		PaymentMethod:       string(o.Payment.Method),
		PaymentRef:          o.Payment.TransactionRef,
		PaymentAmount:       int64(o.Payment.Amount),
		Currency:            o.Payment.Currency,
		Charged:             o.Payment.Charged,
		Provider:            o.Provider.Provider,
		ExternalOrderID:     o.Provider.ExternalOrderID,
		ProviderResponse:    o.Provider.LastResponse,
		Status:              string(o.Status),
		Profit:              int64(o.Profit),
		FailureReason:       o.FailureReason,
		NeedsReconciliation: o.NeedsReconciliation,
		CompletedAt:         o.CompletedAt,
		Refund:              o.Refund,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func orderFromModel(m *Order) *order.Order {
	return &order.Order{
		ID:     m.ID,
		UserID: m.UserID,
		GameID: m.GameID,
		Pack: order.PackSnapshot{
			PackID:    m.PackID,
			Name:      m.PackName,
			Amount:    m.PackAmount,
			Price:     domain.Paise(m.Price),
			CostPrice: domain.Paise(m.CostPrice),
		},
		Destination: order.Destination{
			UserID:   m.DestUserID,
			ServerID: m.DestServerID,
			Username: m.DestUsername,
		},
		Contact: m.Contact,
		Payment: order.PaymentInfo{
			Method:         order.PaymentMethod(m.PaymentMethod),
			TransactionRef: m.PaymentRef,
			Amount:         domain.Paise(m.PaymentAmount),
			Currency:       m.Currency,
			Charged:        m.Charged,
		},
		Provider: order.ProviderInfo{
			Provider:        m.Provider,
			ExternalOrderID: m.ExternalOrderID,
			LastResponse:    m.ProviderResponse,
		},
		Status:              order.Status(m.Status),
		Profit:              domain.Paise(m.Profit),
		FailureReason:       m.FailureReason,
		NeedsReconciliation: m.NeedsReconciliation,
		CompletedAt:         m.CompletedAt,
		Refund:              m.Refund,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func walletToModel(t *wallet.Transaction) *WalletTransaction {
	return &WalletTransaction{
		ID:             t.ID,
		UserID:         t.UserID,
		Kind:           string(t.Kind),
		Status:         string(t.Status),
		Amount:         int64(t.Amount),
		Description:    t.Description,
		RelatedOrderID: t.RelatedOrderID,
		ExternalRef:    t.ExternalRef,
		ReversalOf:     t.ReversalOf,
		Metadata:       t.Metadata,
		BalanceAfter:   int64(t.BalanceAfterTransaction),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func walletFromModel(m *WalletTransaction) *wallet.Transaction {
	meta := m.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return &wallet.Transaction{
		ID:                      m.ID,
		UserID:                  m.UserID,
		Kind:                    wallet.Kind(m.Kind),
		Status:                  wallet.Status(m.Status),
		Amount:                  domain.Paise(m.Amount),
		Description:             m.Description,
		RelatedOrderID:          m.RelatedOrderID,
		ExternalRef:             m.ExternalRef,
		ReversalOf:              m.ReversalOf,
		Metadata:                meta,
		BalanceAfterTransaction: domain.Paise(m.BalanceAfter),
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}
