package topupapi

import (
	"context"
	"log/slog"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/provider/topup"
	"github.com/go-resty/resty/v2"
)

// TargetClient serves the yokcash and hopestore APIs, which share a wire
// format and differ only in the API key header.
type TargetClient struct {
	name   string
	client *resty.Client
	logger *slog.Logger
}

// NewYokcash authenticates with the X-API-KEY header.
func NewYokcash(cfg *config.ProviderAPI, l *slog.Logger) *TargetClient {
	return newTargetClient(Yokcash, "X-API-KEY", cfg, l)
}

// NewHopestore authenticates with the apikey header.
func NewHopestore(cfg *config.ProviderAPI, l *slog.Logger) *TargetClient {
	return newTargetClient(Hopestore, "apikey", cfg, l)
}

func newTargetClient(name, header string, cfg *config.ProviderAPI, l *slog.Logger) *TargetClient {
	return &TargetClient{
		name:   name,
		client: newRestyClient(cfg).SetHeader(header, cfg.Key),
		logger: scopedLogger(l, name),
	}
}

func (c *TargetClient) Name() string          { return c.name }
func (c *TargetClient) RequiresContact() bool { return true }

type targetOrderRequest struct {
	ServiceID string `json:"service_id"`
	Target    string `json:"target"`
	Contact   string `json:"contact"`
	IDTrx     string `json:"idtrx"`
}

func (c *TargetClient) SubmitOrder(ctx context.Context, req topup.SubmitRequest) (*topup.Result, error) {
	raw, err := decode(c.client.R().
		SetContext(ctx).
		SetBody(targetOrderRequest{
			ServiceID: req.ProductID,
			Target:    target(req.UserID, req.ServerID),
			Contact:   req.Contact,
			IDTrx:     req.OrderID,
		}).
		Post("/order"))
	if err != nil {
		return nil, err
	}
	return topup.Normalize(raw, "status", "data.id"), nil
}

func (c *TargetClient) GetOrderStatus(ctx context.Context, externalOrderID string, _ map[string]any) (*topup.Status, error) {
	raw, err := decode(c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"id": externalOrderID}).
		Post("/status"))
	if err != nil {
		return nil, err
	}
	if !topup.IsTruthy(raw["status"]) {
		// The lookup itself was refused; the order may still be in flight.
		c.logger.Warn("⚠️ [WARN] Status lookup refused", "external_order_id", externalOrderID, "reason", topup.Reason(raw))
		return &topup.Status{State: topup.StateUnknown, Reason: topup.Reason(raw), Raw: raw}, nil
	}
	remote, _ := topup.Lookup(raw, "data.status").(string)
	st := &topup.Status{State: topup.MapState(remote), Raw: raw}
	if st.State == topup.StateFailed {
		st.Reason = topup.Reason(raw)
	}
	return st, nil
}

type targetValidateRequest struct {
	GameID   string `json:"game_id"`
	UserID   string `json:"user_id"`
	ServerID string `json:"server_id,omitempty"`
}

func (c *TargetClient) ValidateAccount(ctx context.Context, req topup.ValidateRequest) (*topup.Validation, error) {
	raw, err := decode(c.client.R().
		SetContext(ctx).
		SetBody(targetValidateRequest{GameID: req.GameCode, UserID: req.UserID, ServerID: req.ServerID}).
		Post("/validate"))
	if err != nil {
		return nil, err
	}
	v := &topup.Validation{Raw: raw, Valid: topup.IsTruthy(raw["status"])}
	if v.Valid {
		v.DisplayName, _ = topup.Lookup(raw, "data.username").(string)
	}
	return v, nil
}
