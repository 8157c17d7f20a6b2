package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// RemovalReason tags why the scan cycle retired an order. Every reason is
// terminal; there is no retry state once an order has been removed.
type RemovalReason string

const (
	RemovalSuccess RemovalReason = "success"
	RemovalFail    RemovalReason = "fail"
	RemovalExpired RemovalReason = "expired"
	RemovalError   RemovalReason = "error"
)

// Order is a pending limit order. Orders are created by the placement flow,
// never mutated in place, and removed exactly once by the scan scheduler.
// The ID doubles as the cancellation token surfaced to the user.
type Order struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID uint   `gorm:"index;not null" json:"user_id"`

	Side OrderSide `gorm:"size:4;not null" json:"side"`

	// TokenAddress is the composite CURRENCY.ISSUER identifier of the
	// issued token.
	TokenAddress string `gorm:"size:120;not null" json:"token_address"`
	TokenName    string `gorm:"size:80" json:"token_name"`

	TargetPrice  decimal.Decimal `gorm:"type:numeric(30,15);not null" json:"target_price"`
	InitialPrice decimal.Decimal `gorm:"type:numeric(30,15)" json:"initial_price"`

	// Amount is an absolute XRP quantity for buy orders and a percentage
	// (0-100] of the held token balance for sell orders.
	Amount decimal.Decimal `gorm:"type:numeric(30,15);not null" json:"amount"`

	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Token splits the composite token address into its currency code and
// issuing account.
func (o *Order) Token() (currency, issuer string) {
	parts := strings.SplitN(o.TokenAddress, ".", 2)
	if len(parts) != 2 {
		return o.TokenAddress, ""
	}
	return parts[0], parts[1]
}

func (o *Order) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
