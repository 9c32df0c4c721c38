package repository

import (
	"context"
	"reflect"

	"github.com/amirasaad/topup/pkg/repository/catalog"
	"github.com/amirasaad/topup/pkg/repository/order"
	"github.com/amirasaad/topup/pkg/repository/user"
	"github.com/amirasaad/topup/pkg/repository/wallet"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Every repository obtained inside Do shares the same transaction, so a
// ledger insert, a balance update and an order status change commit or roll
// back together. Calling Do on a UnitOfWork that is already inside a
// transaction joins that transaction.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error,
	// the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type,
	// bound to the current transaction/session.
	GetRepository(repoType reflect.Type) (any, error)

	UserRepository() (user.Repository, error)
	OrderRepository() (order.Repository, error)
	WalletRepository() (wallet.Repository, error)
	CatalogRepository() (catalog.Repository, error)
}
