package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/topup/pkg/repository"
	"github.com/amirasaad/topup/pkg/repository/catalog"
	"github.com/amirasaad/topup/pkg/repository/order"
	"github.com/amirasaad/topup/pkg/repository/user"
	"github.com/amirasaad/topup/pkg/repository/wallet"
	"gorm.io/gorm"
)

// UoW provides the transaction boundary and repository access in one
// abstraction. All repositories handed out by a UoW share its session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*user.Repository)(nil)).Elem():    func(db *gorm.DB) any { return NewUserRepository(db) },
			reflect.TypeOf((*order.Repository)(nil)).Elem():   func(db *gorm.DB) any { return NewOrderRepository(db) },
			reflect.TypeOf((*wallet.Repository)(nil)).Elem():  func(db *gorm.DB) any { return NewWalletRepository(db) },
			reflect.TypeOf((*catalog.Repository)(nil)).Elem(): func(db *gorm.DB) any { return NewCatalogRepository(db) },
		},
	}
}

// Do runs fn in a transaction. A UoW that is already bound to a transaction
// runs fn inside that same transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry})
	})
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// GetRepository returns the repository registered for repoType, bound to
// the current session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func getTyped[T any](u *UoW) (T, error) {
	var zero T
	repo, err := u.GetRepository(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	typed, ok := repo.(T)
	if !ok {
		return zero, fmt.Errorf("repository %T does not implement %v", repo, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}

func (u *UoW) UserRepository() (user.Repository, error) {
	return getTyped[user.Repository](u)
}

func (u *UoW) OrderRepository() (order.Repository, error) {
	return getTyped[order.Repository](u)
}

func (u *UoW) WalletRepository() (wallet.Repository, error) {
	return getTyped[wallet.Repository](u)
}

func (u *UoW) CatalogRepository() (catalog.Repository, error) {
	return getTyped[catalog.Repository](u)
}
