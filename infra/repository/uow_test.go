package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/amirasaad/topup/pkg/repository/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockUoW(t *testing.T) (*UoW, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return NewUoW(db), mock
}

func TestUoW_DoAndGetRepository(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	uow, mock := newMockUoW(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		repoAny, err := txUow.GetRepository(reflect.TypeOf((*user.Repository)(nil)).Elem())
		require.NoError(err)
		_, ok := repoAny.(*userRepository)
		assert.True(ok)

		orderRepo, err := txUow.OrderRepository()
		require.NoError(err)
		_, ok = orderRepo.(*orderRepository)
		assert.True(ok)

		walletRepo, err := txUow.WalletRepository()
		require.NoError(err)
		_, ok = walletRepo.(*walletRepository)
		assert.True(ok)

		catalogRepo, err := txUow.CatalogRepository()
		require.NoError(err)
		_, ok = catalogRepo.(*catalogRepository)
		assert.True(ok)
		return nil
	})
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestUoW_RollbackOnError(t *testing.T) {
	uow, mock := newMockUoW(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_NestedDoJoinsTransaction(t *testing.T) {
	uow, mock := newMockUoW(t)

	// One BEGIN/COMMIT pair even though Do is entered twice.
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := uow.Do(context.Background(), func(outer repository.UnitOfWork) error {
		return outer.Do(context.Background(), func(inner repository.UnitOfWork) error {
			calls++
			assert.Same(t, outer, inner)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_UnsupportedRepository(t *testing.T) {
	uow, _ := newMockUoW(t)
	_, err := uow.GetRepository(reflect.TypeOf((*error)(nil)).Elem())
	assert.Error(t, err)
}
