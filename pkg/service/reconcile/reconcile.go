// Package reconcile runs the background sweeps that settle work a
// missed webhook or a crashed request left pending.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/metrics"
	"github.com/amirasaad/topup/pkg/repository"
	ordersvc "github.com/amirasaad/topup/pkg/service/order"
	paymentsvc "github.com/amirasaad/topup/pkg/service/payment"
	"github.com/robfig/cron/v3"
)

// Report counts what one sweep looked at.
type Report struct {
	AwaitingPayment int
	Deposits        int
	Refunds         int
	Processing      int
	// Stranded counts charged orders that were never submitted. They are
	// reported, not retried.
	Stranded int
	Errors   int
}

type Service struct {
	uow      repository.UnitOfWork
	orders   *ordersvc.Service
	payments *paymentsvc.Service
	cfg      *config.Reconcile
	logger   *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func New(
	uow repository.UnitOfWork,
	orders *ordersvc.Service,
	payments *paymentsvc.Service,
	cfg *config.Reconcile,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", "reconcile")
	return &Service{
		uow:      uow,
		orders:   orders,
		payments: payments,
		cfg:      cfg,
		logger:   logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		now: time.Now,
	}
}

// Start schedules Sweep on the configured cron spec. The context bounds
// every run; Stop must still be called to halt the scheduler.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("🔁 [SKIP] Reconciliation disabled")
		return nil
	}
	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		if ctx.Err() != nil {
			return
		}
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("reconcile schedule %q: %w", s.cfg.Spec, err)
	}
	s.cron.Start()
	s.logger.Info("🟢 [START] Reconciliation scheduled", "spec", s.cfg.Spec)
	return nil
}

// Stop halts the scheduler and waits for a running sweep.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs every pass once. Each item is handled independently so one
// failing gateway or provider call does not block the rest.
func (s *Service) Sweep(ctx context.Context) Report {
	var r Report
	cutoff := s.now().Add(-s.cfg.PendingAge)

	s.sweepAwaitingPayment(ctx, cutoff, &r)
	s.sweepLedger(ctx, cutoff, &r)
	s.sweepProcessing(ctx, cutoff, &r)
	s.reportStranded(ctx, cutoff, &r)

	metrics.RecordReconcileSweep(r.Errors)
	s.logger.Info("✅ [SUCCESS] Reconciliation sweep finished",
		"awaiting_payment", r.AwaitingPayment,
		"deposits", r.Deposits,
		"refunds", r.Refunds,
		"processing", r.Processing,
		"stranded", r.Stranded,
		"errors", r.Errors)
	return r
}

func (s *Service) sweepAwaitingPayment(ctx context.Context, cutoff time.Time, r *Report) {
	list, err := s.listOrders(ctx, order.StatusAwaitingPayment, cutoff)
	if err != nil {
		r.Errors++
		return
	}
	for _, o := range list {
		r.AwaitingPayment++
		if err := s.payments.CheckOrderPayment(ctx, o); err != nil {
			r.Errors++
			s.logger.Warn("⚠️ [WARN] Order payment check failed", "order_id", o.ID, "error", err)
		}
	}
}

// sweepLedger polls pending gateway entries. Deposits tied to an order are
// left to sweepAwaitingPayment.
func (s *Service) sweepLedger(ctx context.Context, cutoff time.Time, r *Report) {
	repo, err := s.uow.WalletRepository()
	if err != nil {
		r.Errors++
		return
	}
	pending, err := repo.ListPending(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		r.Errors++
		s.logger.Error("❌ [ERROR] Listing pending ledger entries failed", "error", err)
		return
	}
	for _, txn := range pending {
		switch {
		case txn.IsReversal():
			r.Refunds++
			if _, err := s.payments.CheckRefundStatus(ctx, txn.ID); err != nil {
				r.Errors++
				s.logger.Warn("⚠️ [WARN] Refund status check failed", "transaction_id", txn.ID, "error", err)
			}
		case txn.Kind == wallet.KindDeposit && txn.RelatedOrderID == "":
			r.Deposits++
			if _, err := s.payments.CheckDepositStatus(ctx, txn.ID, txn.UserID, true); err != nil {
				r.Errors++
				s.logger.Warn("⚠️ [WARN] Deposit status check failed", "transaction_id", txn.ID, "error", err)
			}
		}
	}
}

func (s *Service) sweepProcessing(ctx context.Context, cutoff time.Time, r *Report) {
	list, err := s.listOrders(ctx, order.StatusProcessing, cutoff)
	if err != nil {
		r.Errors++
		return
	}
	for _, o := range list {
		r.Processing++
		s.orders.Poll(ctx, o)
	}
}

// reportStranded logs paid orders that a crash left between charging and
// provider submission. Resubmitting could deliver twice, so an operator
// decides.
func (s *Service) reportStranded(ctx context.Context, cutoff time.Time, r *Report) {
	list, err := s.listOrders(ctx, order.StatusPaid, cutoff)
	if err != nil {
		r.Errors++
		return
	}
	for _, o := range list {
		r.Stranded++
		s.logger.Error("🚨 [MANUAL RECONCILIATION] Paid order was never submitted",
			"order_id", o.ID,
			"user_id", o.UserID,
			"amount", o.Payment.Amount.String(),
			"updated_at", o.UpdatedAt)
	}
}

func (s *Service) listOrders(ctx context.Context, status order.Status, cutoff time.Time) ([]*order.Order, error) {
	repo, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	list, err := repo.ListByStatus(ctx, status, cutoff, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("❌ [ERROR] Listing orders failed", "status", status, "error", err)
		return nil, err
	}
	return list, nil
}

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("❌ [ERROR] "+msg, append(keysAndValues, "error", err)...)
}
