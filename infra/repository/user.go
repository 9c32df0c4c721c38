package repository

import (
	"context"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	repo "github.com/amirasaad/topup/pkg/repository/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) repo.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(userToModel(u)).Error
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}
	return userFromModel(&m), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error; err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}
	return userFromModel(&m), nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var m User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}
	return userFromModel(&m), nil
}

func (r *userRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta domain.Paise) (domain.Paise, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&User{}).
		Where("id = ? AND wallet_balance + ? >= 0", id, int64(delta)).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", int64(delta)))
	if res.Error != nil {
		return 0, MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return 0, err
		}
		return 0, domain.ErrInsufficientBalance
	}
	var m User
	if err := db.Select("wallet_balance").First(&m, "id = ?", id).Error; err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	return domain.Paise(m.WalletBalance), nil
}
