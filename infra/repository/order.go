package repository

import (
	"context"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/leaderboard"
	"github.com/amirasaad/topup/pkg/domain/order"
	repo "github.com/amirasaad/topup/pkg/repository/order"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) repo.Repository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(orderToModel(o)).Error
	})
}

func (r *orderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var m Order
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, domain.ErrOrderNotFound)
	}
	return orderFromModel(&m), nil
}

func (r *orderRepository) GetByPaymentRef(ctx context.Context, ref string) (*order.Order, error) {
	var m Order
	err := r.db.WithContext(ctx).
		Where("payment_ref = ? AND payment_method = ?", ref, string(order.PaymentGateway)).
		First(&m).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrOrderNotFound)
	}
	return orderFromModel(&m), nil
}

// Update is a compare-and-set on status so two writers racing on the same
// order cannot both apply a transition.
func (r *orderRepository) Update(ctx context.Context, o *order.Order, expected order.Status) error {
	m := orderToModel(o)
	res := r.db.WithContext(ctx).
		Model(m).
		Where("status = ?", string(expected)).
		Select("*").
		Omit("created_at").
		Updates(m)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	return nil
}

func (r *orderRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*order.Order, int64, error) {
	var (
		models []Order
		total  int64
	)
	q := r.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}
	return ordersFromModels(models), total, nil
}

func (r *orderRepository) ListByStatus(
	ctx context.Context,
	status order.Status,
	olderThan time.Time,
	limit int,
) ([]*order.Order, error) {
	var models []Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", string(status), olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return ordersFromModels(models), nil
}

type leaderboardRow struct {
	UserID     uuid.UUID
	Name       string
	Email      string
	TotalSpent int64
	OrderCount int64
}

func (r *orderRepository) Leaderboard(
	ctx context.Context,
	from, to time.Time,
	limit int,
) ([]leaderboard.Entry, error) {
	var rows []leaderboardRow
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.user_id AS user_id, u.name AS name, u.email AS email, " +
			"SUM(o.payment_amount) AS total_spent, COUNT(*) AS order_count").
		Joins("JOIN users AS u ON u.id = o.user_id").
		Where("o.status = ? AND o.created_at BETWEEN ? AND ?", string(order.StatusCompleted), from, to).
		Group("o.user_id, u.name, u.email").
		Order("total_spent DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	entries := make([]leaderboard.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, leaderboard.Entry{
			UserID:     row.UserID,
			Name:       row.Name,
			Email:      row.Email,
			TotalSpent: domain.Paise(row.TotalSpent),
			OrderCount: row.OrderCount,
		})
	}
	return leaderboard.Rank(entries), nil
}

func ordersFromModels(models []Order) []*order.Order {
	out := make([]*order.Order, 0, len(models))
	for i := range models {
		out = append(out, orderFromModel(&models[i]))
	}
	return out
}
