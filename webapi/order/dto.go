package order

import (
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/domain/user"
	ordersvc "github.com/amirasaad/topup/pkg/service/order"
	"github.com/google/uuid"
)

// DestinationInput is the in-game account to deliver to.
type DestinationInput struct {
	UserID   string `json:"userId" validate:"required"`
	ServerID string `json:"serverId"`
	Username string `json:"username"`
}

// PaymentInput is how the caller pays. Amount is in paise and must equal
// the pack price for the caller's role.
type PaymentInput struct {
	Method   string `json:"method" validate:"required,oneof=wallet gateway"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency"`
}

// CreateOrderInput represents the request body for placing an order.
type CreateOrderInput struct {
	GameID      string           `json:"gameId" validate:"required,uuid"`
	PackID      string           `json:"packId" validate:"required"`
	Destination DestinationInput `json:"destination"`
	Payment     PaymentInput     `json:"payment"`
	Provider    string           `json:"provider" validate:"required"`
	Contact     string           `json:"contact"`
}

// RefundInput is the admin's reason for refunding an order.
type RefundInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// OrderList is one page of orders.
type OrderList struct {
	Orders []*order.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// ToCreateRequest maps the body onto a service request for the caller.
func ToCreateRequest(in *CreateOrderInput, userID uuid.UUID, role user.Role) ordersvc.CreateRequest {
	return ordersvc.CreateRequest{
		UserID: userID,
		Role:   role,
		GameID: uuid.MustParse(in.GameID),
		PackID: in.PackID,
		Destination: order.Destination{
			UserID:   in.Destination.UserID,
			ServerID: in.Destination.ServerID,
			Username: in.Destination.Username,
		},
		Method:   order.PaymentMethod(in.Payment.Method),
		Amount:   domain.Paise(in.Payment.Amount),
		Currency: in.Payment.Currency,
		Provider: in.Provider,
		Contact:  in.Contact,
	}
}
