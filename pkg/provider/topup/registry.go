package topup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/metrics"
)

// Registry dispatches provider operations by provider name.
type Registry struct {
	clients map[string]Client
	logger  *slog.Logger
}

// NewRegistry indexes clients by their Name.
func NewRegistry(logger *slog.Logger, clients ...Client) *Registry {
	r := &Registry{clients: make(map[string]Client, len(clients)), logger: logger}
	for _, c := range clients {
		r.clients[c.Name()] = c
	}
	return r
}

// Get returns the client for provider or domain.ErrUnknownProvider.
func (r *Registry) Get(provider string) (Client, error) {
	c, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}
	return c, nil
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SubmitOrder never returns an error for call failures: those are folded
// into a failed Result so callers have a single failure path. Only an
// unknown provider is an error.
func (r *Registry) SubmitOrder(ctx context.Context, provider string, req SubmitRequest) (*Result, error) {
	c, err := r.Get(provider)
	if err != nil {
		return nil, err
	}
	logger := r.logger.With("provider", provider, "order_id", req.OrderID)
	logger.Info("🟢 [START] Submitting order to provider", "game", req.GameCode, "product", req.ProductID)

	res, err := c.SubmitOrder(ctx, req)
	switch {
	case err != nil:
		logger.Error("❌ [ERROR] Provider call failed", "error", err)
		metrics.RecordProviderCall(provider, "transport_error")
		return TransportFailure(err), nil
	case res.Success:
		logger.Info("✅ [SUCCESS] Provider accepted order", "external_order_id", res.ExternalOrderID)
		metrics.RecordProviderCall(provider, "success")
	default:
		logger.Warn("⚠️ [WARN] Provider rejected order", "reason", res.Reason)
		metrics.RecordProviderCall(provider, "rejected")
	}
	return res, nil
}

// GetOrderStatus folds call failures into StateUnknown so a flaky status
// endpoint never fails an order that may still complete.
func (r *Registry) GetOrderStatus(
	ctx context.Context,
	provider, externalOrderID string,
	last map[string]any,
) (*Status, error) {
	c, err := r.Get(provider)
	if err != nil {
		return nil, err
	}
	st, err := c.GetOrderStatus(ctx, externalOrderID, last)
	if err != nil {
		r.logger.Warn("⚠️ [WARN] Provider status check failed",
			"provider", provider, "external_order_id", externalOrderID, "error", err)
		metrics.RecordProviderCall(provider, "status_error")
		return &Status{State: StateUnknown, Reason: err.Error()}, nil
	}
	metrics.RecordProviderCall(provider, "status_"+string(st.State))
	return st, nil
}

// ValidateDestinationAccount looks up an in-game account.
func (r *Registry) ValidateDestinationAccount(
	ctx context.Context,
	provider string,
	req ValidateRequest,
) (*Validation, error) {
	c, err := r.Get(provider)
	if err != nil {
		return nil, err
	}
	v, err := c.ValidateAccount(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	return v, nil
}

// RequiresContact reports whether the provider needs a contact number.
func (r *Registry) RequiresContact(provider string) (bool, error) {
	c, err := r.Get(provider)
	if err != nil {
		return false, err
	}
	return c.RequiresContact(), nil
}
