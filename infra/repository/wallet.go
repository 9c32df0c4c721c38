package repository

import (
	"context"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	repo "github.com/amirasaad/topup/pkg/repository/wallet"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet ledger repository.
func NewWalletRepository(db *gorm.DB) repo.Repository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, txn *wallet.Transaction) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(walletToModel(txn)).Error
	})
}

func (r *walletRepository) Get(ctx context.Context, id string) (*wallet.Transaction, error) {
	var m WalletTransaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, domain.ErrTransactionNotFound)
	}
	return walletFromModel(&m), nil
}

func (r *walletRepository) GetByExternalRef(ctx context.Context, ref string) (*wallet.Transaction, error) {
	var m WalletTransaction
	if err := r.db.WithContext(ctx).First(&m, "external_ref = ?", ref).Error; err != nil {
		return nil, mapNotFound(err, domain.ErrTransactionNotFound)
	}
	return walletFromModel(&m), nil
}

func (r *walletRepository) Update(ctx context.Context, txn *wallet.Transaction, expected wallet.Status) error {
	txn.UpdatedAt = time.Now().UTC()
	m := walletToModel(txn)
	res := r.db.WithContext(ctx).
		Model(m).
		Where("status = ?", string(expected)).
		Select("status", "external_ref", "metadata", "balance_after_transaction", "updated_at").
		Updates(m)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	return nil
}

func (r *walletRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*wallet.Transaction, int64, error) {
	var (
		models []WalletTransaction
		total  int64
	)
	q := r.db.WithContext(ctx).Model(&WalletTransaction{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}
	return walletsFromModels(models), total, nil
}

func (r *walletRepository) ListByOrder(ctx context.Context, orderID string) ([]*wallet.Transaction, error) {
	var models []WalletTransaction
	err := r.db.WithContext(ctx).
		Where("related_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return walletsFromModels(models), nil
}

func (r *walletRepository) ListPending(
	ctx context.Context,
	olderThan time.Time,
	limit int,
) ([]*wallet.Transaction, error) {
	var models []WalletTransaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND external_ref <> '' AND created_at < ?", string(wallet.StatusPending), olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return walletsFromModels(models), nil
}

func (r *walletRepository) SumHeld(ctx context.Context, userID uuid.UUID) (domain.Paise, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&WalletTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND status = ? AND reversal_of <> ''", userID, string(wallet.StatusPending)).
		Scan(&total).Error
	if err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	return domain.Paise(total), nil
}

func (r *walletRepository) SumReversals(ctx context.Context, depositID string) (domain.Paise, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&WalletTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("reversal_of = ? AND status IN ?", depositID,
			[]string{string(wallet.StatusPending), string(wallet.StatusSuccess)}).
		Scan(&total).Error
	if err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	return domain.Paise(total), nil
}

func walletsFromModels(models []WalletTransaction) []*wallet.Transaction {
	out := make([]*wallet.Transaction, 0, len(models))
	for i := range models {
		out = append(out, walletFromModel(&models[i]))
	}
	return out
}
