package repository

import (
	"context"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/1001pro/xrp-trading-bot/src/database"
	"github.com/1001pro/xrp-trading-bot/src/model"
)

// UserRepository handles read/write operations for users.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository instance using the main
// read/write database.
func NewUserRepository() *UserRepository {
	logger.WithField("component", "UserRepository").
		Debug("Creating new UserRepository with MainDB")

	return &UserRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *UserRepository) WithDB(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindWithPendingOrders returns every user that holds at least one pending
// order, with the order list preloaded in creation order.
func (r *UserRepository) FindWithPendingOrders(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id IN (?)", r.db.Model(&model.Order{}).Select("user_id")).
		Find(&users).Error

	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("tg_id = ?", tgID).
		First(&u).Error

	if err != nil {
		return nil, err
	}

	return &u, nil
}

// CreditReferralEarnings adds the given fee to a user's running referral
// earnings counter.
func (r *UserRepository) CreditReferralEarnings(ctx context.Context, userID uint, fee decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("referral_earns", gorm.Expr("referral_earns + ?", fee)).Error
}
