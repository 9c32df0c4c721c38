package app

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/topup/pkg/cache"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/eventbus"
	"github.com/amirasaad/topup/pkg/provider/notify"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/amirasaad/topup/pkg/provider/topup"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/amirasaad/topup/pkg/service/auth"
	"github.com/amirasaad/topup/pkg/service/catalog"
	"github.com/amirasaad/topup/pkg/service/leaderboard"
	"github.com/amirasaad/topup/pkg/service/order"
	paymentsvc "github.com/amirasaad/topup/pkg/service/payment"
	"github.com/amirasaad/topup/pkg/service/reconcile"
	usersvc "github.com/amirasaad/topup/pkg/service/user"
	"github.com/amirasaad/topup/pkg/service/wallet"
)

// Deps holds the infrastructure the services are built from. Gateway and
// Cache may be nil.
type Deps struct {
	Uow       repository.UnitOfWork
	EventBus  eventbus.Bus
	Gateway   payment.Gateway
	Providers *topup.Registry
	Notifier  notify.Notifier
	Cache     cache.LeaderboardCache
	Logger    *slog.Logger
}

type App struct {
	Deps               *Deps
	Config             *config.App
	AuthService        *auth.Service
	CatalogService     *catalog.Service
	WalletService      *wallet.Service
	OrderService       *order.Service
	PaymentService     *paymentsvc.Service
	LeaderboardService *leaderboard.Service
	ReconcileService   *reconcile.Service
	UserService        *usersvc.Service
}

func New(deps *Deps, cfg *config.App) (*App, error) {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.AuthService = auth.New(deps.Uow, cfg.Auth.Jwt, deps.Logger)
	app.UserService = usersvc.New(deps.Uow, deps.Logger)
	app.CatalogService = catalog.New(deps.Uow, deps.Logger)
	app.WalletService = wallet.New(deps.Uow, deps.Gateway, deps.EventBus, cfg.Wallet, deps.Logger)
	app.OrderService = order.New(
		deps.Uow,
		app.WalletService,
		deps.Providers,
		deps.EventBus,
		cfg.Order,
		deps.Logger,
	)
	app.PaymentService = paymentsvc.New(
		deps.Uow,
		deps.Gateway,
		app.WalletService,
		app.OrderService,
		deps.Logger,
	)

	board, err := leaderboard.New(deps.Uow, deps.Cache, cfg.Leaderboard, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	app.LeaderboardService = board
	app.ReconcileService = reconcile.New(
		deps.Uow,
		app.OrderService,
		app.PaymentService,
		cfg.Reconcile,
		deps.Logger,
	)

	app.setupEventBus()
	return app, nil
}
