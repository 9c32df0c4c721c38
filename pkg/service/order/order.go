// Package order drives orders through their lifecycle: validation, the
// payment leg (wallet or gateway), provider submission, status polling and
// refunds. Every persisted transition is a compare-and-set on the order's
// previous status, so webhook, poll and admin paths may race safely.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/catalog"
	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/eventbus"
	"github.com/amirasaad/topup/pkg/metrics"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/amirasaad/topup/pkg/provider/topup"
	"github.com/amirasaad/topup/pkg/repository"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
	"github.com/amirasaad/topup/pkg/utils"
	"github.com/google/uuid"
)

// Ledger is the part of the wallet ledger the order flow moves money with.
// The In variants run inside the caller's unit of work.
type Ledger interface {
	SpendIn(
		ctx context.Context,
		uow repository.UnitOfWork,
		userID uuid.UUID,
		amount domain.Paise,
		orderRef, description string,
	) (*wallet.Transaction, error)
	RefundIn(
		ctx context.Context,
		uow repository.UnitOfWork,
		userID uuid.UUID,
		amount domain.Paise,
		orderRef, description string,
	) (*wallet.Transaction, error)
	OpenCheckout(
		ctx context.Context,
		userID uuid.UUID,
		amount domain.Paise,
		orderRef, description string,
	) (*wallet.Transaction, *payment.Checkout, error)
	SettleDepositIn(
		ctx context.Context,
		uow repository.UnitOfWork,
		txnID string,
		state payment.State,
		raw map[string]any,
	) (*wallet.Transaction, bool, error)
}

var _ Ledger = (*walletsvc.Service)(nil)

// Service is the order state machine.
type Service struct {
	uow       repository.UnitOfWork
	ledger    Ledger
	providers *topup.Registry
	bus       eventbus.Bus
	prefixes  []string
	logger    *slog.Logger
	now       func() time.Time
}

// New creates the order service.
func New(
	uow repository.UnitOfWork,
	ledger Ledger,
	providers *topup.Registry,
	bus eventbus.Bus,
	cfg *config.Order,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	prefixes := []string{"62", "60", "65", "91"}
	if cfg != nil && len(cfg.ContactPrefixes) > 0 {
		prefixes = make([]string, 0, len(cfg.ContactPrefixes))
		for _, p := range cfg.ContactPrefixes {
			prefixes = append(prefixes, strings.TrimSpace(p))
		}
	}
	return &Service{
		uow:       uow,
		ledger:    ledger,
		providers: providers,
		bus:       bus,
		prefixes:  prefixes,
		logger:    logger.With("service", "order"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest is a purchase request from an authenticated user.
type CreateRequest struct {
	UserID      uuid.UUID
	Role        user.Role
	GameID      uuid.UUID
	PackID      string
	Destination order.Destination
	Method      order.PaymentMethod
	Amount      domain.Paise
	Currency    string
	Provider    string
	Contact     string
}

// CreateResult is the order as it stands after the synchronous part of the
// flow. CheckoutURL is set for gateway orders awaiting payment.
type CreateResult struct {
	Order       *order.Order `json:"order"`
	CheckoutURL string       `json:"checkoutUrl,omitempty"`
}

// CreateOrder validates the request, persists a pending order and runs the
// payment leg. Wallet orders continue straight into provider submission.
//
// Validation failures return before anything is stored. Once the order is
// stored, failures of the payment leg come back as the failed order plus
// the cause, e.g. domain.ErrInsufficientBalance.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	log := s.logger.With("handler", "CreateOrder", "user_id", req.UserID, "game_id", req.GameID, "pack_id", req.PackID)
	game, pack, price, err := s.validate(ctx, req)
	if err != nil {
		log.Warn("❌ [ERROR] Order rejected", "error", err)
		return nil, err
	}

	o := order.New(req.UserID, game.ID, order.PackSnapshot{
		PackID:    pack.PackID,
		Name:      pack.Name,
		Amount:    pack.Amount,
		Price:     price,
		CostPrice: pack.CostPrice,
	}, req.Destination, order.PaymentInfo{
		Method: req.Method,
		Amount: price,
	}, game.APIProvider)
	o.Contact = req.Contact

	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	if err := orders.Create(ctx, o); err != nil {
		return nil, err
	}
	log = log.With("order_id", o.ID)
	log.Info("🟢 [START] Order created", "method", o.Payment.Method, "amount", price)

	if o.Payment.Method == order.PaymentGateway {
		return s.payByGateway(ctx, o)
	}
	o, err = s.payByWallet(ctx, o)
	if err != nil {
		return &CreateResult{Order: o}, err
	}
	o = s.submit(ctx, o)
	return &CreateResult{Order: o}, nil
}

func (s *Service) validate(ctx context.Context, req CreateRequest) (*catalog.Game, *catalog.Pack, domain.Paise, error) {
	var missing []string
	if req.GameID == uuid.Nil {
		missing = append(missing, "gameId")
	}
	if req.PackID == "" {
		missing = append(missing, "packId")
	}
	if strings.TrimSpace(req.Destination.UserID) == "" {
		missing = append(missing, "gameUserInfo.userId")
	}
	if req.Method == "" {
		missing = append(missing, "paymentInfo.method")
	}
	if req.Amount == 0 {
		missing = append(missing, "paymentInfo.amount")
	}
	if req.Provider == "" {
		missing = append(missing, "provider")
	}
	if len(missing) > 0 {
		return nil, nil, 0, fmt.Errorf("%w: %s", domain.ErrMissingField, strings.Join(missing, ", "))
	}
	if !req.Method.Valid() {
		return nil, nil, 0, fmt.Errorf("%w: unsupported payment method %q", domain.ErrValidation, req.Method)
	}
	if req.Amount < 0 {
		return nil, nil, 0, domain.ErrInvalidAmount
	}
	if req.Currency != "" && !strings.EqualFold(req.Currency, domain.DefaultCurrency) {
		return nil, nil, 0, fmt.Errorf("%w: unsupported currency %q", domain.ErrValidation, req.Currency)
	}

	catalogs, err := s.uow.CatalogRepository()
	if err != nil {
		return nil, nil, 0, err
	}
	game, err := catalogs.GetGame(ctx, req.GameID)
	if err != nil {
		return nil, nil, 0, err
	}
	pack := game.FindPack(req.PackID)
	if pack == nil {
		return nil, nil, 0, domain.ErrPackNotFound
	}
	if !game.IsActive || !pack.IsActive {
		return nil, nil, 0, domain.ErrInactiveCatalog
	}
	if req.Provider != game.APIProvider {
		return nil, nil, 0, fmt.Errorf("%w: %q does not fulfil %s", domain.ErrValidation, req.Provider, game.Name)
	}
	needsContact, err := s.providers.RequiresContact(req.Provider)
	if err != nil {
		return nil, nil, 0, err
	}
	if needsContact || req.Contact != "" {
		if !s.contactAllowed(req.Contact) {
			return nil, nil, 0, domain.ErrInvalidContact
		}
	}
	price := pack.PriceFor(req.Role)
	if req.Amount != price {
		return nil, nil, 0, fmt.Errorf("%w: got %s, pack costs %s", domain.ErrAmountMismatch, req.Amount, price)
	}
	return game, pack, price, nil
}

// contactAllowed accepts a phone number, optionally written with "+",
// spaces or dashes, that starts with an allowlisted country code.
func (s *Service) contactAllowed(contact string) bool {
	c := utils.NormalizePhone(contact)
	if len(c) < 8 {
		return false
	}
	for _, r := range c {
		if r < '0' || r > '9' {
			return false
		}
	}
	return utils.HasAnyPrefix(c, s.prefixes)
}

// payByWallet debits the wallet and marks the order paid in one unit of
// work. A failed debit fails the order; nothing was charged.
func (s *Service) payByWallet(ctx context.Context, o *order.Order) (*order.Order, error) {
	var spendErr error
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txn, err := s.ledger.SpendIn(ctx, uow, o.UserID, o.Payment.Amount, o.ID, o.Pack.Name)
		if err != nil {
			spendErr = err
			return err
		}
		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		o.Payment.TransactionRef = txn.ID
		o.Payment.Charged = true
		from, err := o.Fire(order.EventWalletCharged)
		if err != nil {
			return err
		}
		return s.save(ctx, orders, o, from)
	})
	if err == nil {
		return o, nil
	}
	if spendErr == nil {
		return o, err
	}

	reason := "Payment failed: " + spendErr.Error()
	if errors.Is(spendErr, domain.ErrInsufficientBalance) {
		reason = "Insufficient wallet balance"
	}
	o.Payment.TransactionRef = ""
	o.Payment.Charged = false
	o.Status = order.StatusPending
	if failed, ferr := s.failUncharged(ctx, o, order.StatusPending, reason); ferr == nil {
		o = failed
	}
	return o, fmt.Errorf("order %s: %w", o.ID, spendErr)
}

// payByGateway opens a checkout for the order. The pending deposit it
// creates is what the gateway confirmation later settles.
func (s *Service) payByGateway(ctx context.Context, o *order.Order) (*CreateResult, error) {
	_, checkout, err := s.ledger.OpenCheckout(ctx, o.UserID, o.Payment.Amount, o.ID, o.Pack.Name)
	if err != nil {
		failed, ferr := s.failUncharged(ctx, o, order.StatusPending, "Payment initiation failed: "+err.Error())
		if ferr == nil {
			o = failed
		}
		return &CreateResult{Order: o}, err
	}
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	o.Payment.TransactionRef = checkout.MerchantOrderID
	from, err := o.Fire(order.EventCheckoutIssued)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, orders, o, from); err != nil {
		return nil, err
	}
	s.logger.Info("🟢 [START] Awaiting gateway payment", "order_id", o.ID, "merchant_order_id", checkout.MerchantOrderID)
	return &CreateResult{Order: o, CheckoutURL: checkout.CheckoutURL}, nil
}

// failUncharged fails an order whose payment leg never charged anything.
func (s *Service) failUncharged(ctx context.Context, o *order.Order, expected order.Status, reason string) (*order.Order, error) {
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	if _, err := o.Fail(order.EventPaymentFailed, reason); err != nil {
		return nil, err
	}
	if err := s.save(ctx, orders, o, expected); err != nil {
		s.logger.Error("❌ [ERROR] Could not record payment failure", "order_id", o.ID, "error", err)
		return nil, err
	}
	s.logger.Info("❌ [FAILED] Order payment failed", "order_id", o.ID, "reason", reason)
	s.emit(ctx, events.EventTypeOrderFailed, o)
	return o, nil
}

// save persists o if its stored status is still from.
func (s *Service) save(ctx context.Context, orders orderStore, o *order.Order, from order.Status) error {
	if err := orders.Update(ctx, o, from); err != nil {
		return err
	}
	if from != o.Status {
		metrics.RecordOrderTransition(string(from), string(o.Status))
	}
	return nil
}

type orderStore interface {
	Update(ctx context.Context, o *order.Order, expected order.Status) error
}

// reload fetches the current state of an order after a lost race.
func (s *Service) reload(ctx context.Context, id string) (*order.Order, error) {
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	return orders.Get(ctx, id)
}

func (s *Service) emit(ctx context.Context, t events.EventType, o *order.Order) {
	if s.bus == nil {
		return
	}
	err := s.bus.Emit(ctx, events.OrderEvent{
		EventType:     t,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PackName:      o.Pack.Name,
		Amount:        o.Payment.Amount,
		FailureReason: o.FailureReason,
		Timestamp:     s.now(),
	})
	if err != nil {
		s.logger.Warn("⚠️ [EVENT] Emit failed", "type", t, "order_id", o.ID, "error", err)
	}
}

func isStale(err error) bool {
	return errors.Is(err, domain.ErrStaleState)
}
