package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the ledger credentials of a user. The seed is encrypted at
// rest (see src/security) and must never be logged or serialized.
type Wallet struct {
	Address    string `gorm:"size:64;column:wallet_address" json:"wallet_address"`
	SeedCipher string `gorm:"type:text;column:wallet_seed" json:"-"`
}

// User owns a wallet, a referral position and a list of pending orders.
// The order list is the only field the scan engine mutates; everything else
// is a read-only input to it.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	TgID     int64  `gorm:"uniqueIndex;not null" json:"tg_id"`
	Username string `gorm:"size:80" json:"username"`

	Wallet Wallet `gorm:"embedded" json:"wallet"`

	ReferralCode  string          `gorm:"uniqueIndex;size:32" json:"referral_code"`
	ReferralEarns decimal.Decimal `gorm:"type:numeric(30,15)" json:"referral_earns"`

	// ParentTgID points at the referrer. Zero means no referrer. The
	// pointers are expected to form a tree; the fee distributor still
	// guards against cycles at traversal time.
	ParentTgID int64 `gorm:"index" json:"parent_tg_id"`

	IsAdmin bool `json:"is_admin"`

	Orders []Order `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"orders,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
