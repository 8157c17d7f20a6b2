package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/1001pro/xrp-trading-bot/src/database"
	"github.com/1001pro/xrp-trading-bot/src/model"
)

// ErrOrderNotFound is returned when a lookup or cancellation targets an
// order id that does not belong to the user.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository handles read/write operations for pending limit orders.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new repository instance using the main
// read/write database.
func NewOrderRepository() *OrderRepository {
	logger.WithField("component", "OrderRepository").
		Debug("Creating new OrderRepository with MainDB")

	return &OrderRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *OrderRepository) WithDB(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) FindByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

// DeleteByIDForUser removes a single order by its id, scoped to the owning
// user so one user's cancellation token cannot touch another's orders.
func (r *OrderRepository) DeleteByIDForUser(ctx context.Context, userID uint, orderID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, orderID).
		Delete(&model.Order{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// RemoveByIDs deletes exactly the named orders for one user in a single
// write. The scan cycle calls this once per user per cycle with the ids it
// collected; an order placed concurrently with the cycle is never touched.
func (r *OrderRepository) RemoveByIDs(ctx context.Context, userID uint, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&model.Order{}).Error
}

// DistinctTokenAddresses returns every token address that appears in at
// least one pending order, for the batched price refresh path.
func (r *OrderRepository) DistinctTokenAddresses(ctx context.Context) ([]string, error) {
	var addresses []string
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Distinct("token_address").
		Order("token_address ASC").
		Pluck("token_address", &addresses).Error

	if err != nil {
		return nil, err
	}

	return addresses, nil
}
