// Package referral pays out the multi-level referral fee after a successful
// trade. Distribution is best-effort: it is not atomic with the trade, and
// an already-sent transfer is never reversed.
package referral

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/1001pro/xrp-trading-bot/src/model"
)

const (
	maxHops      = 3
	feePrecision = 6
)

var (
	hopRate   = decimal.RequireFromString("0.001")
	adminRate = decimal.RequireFromString("0.01")
)

type userStore interface {
	GetByTgID(ctx context.Context, tgID int64) (*model.User, error)
	CreditReferralEarnings(ctx context.Context, userID uint, fee decimal.Decimal) error
}

type transferer interface {
	TransferXRP(ctx context.Context, seed, account, destination string, amount decimal.Decimal) (string, error)
}

// Distributor walks a trading user's referral ancestry and pays the decaying
// per-hop fee plus the flat administrative cut.
type Distributor struct {
	users       userStore
	ledger      transferer
	adminWallet string
	log         *logger.Entry
}

func NewDistributor(users userStore, ledger transferer) *Distributor {
	return &Distributor{
		users:       users,
		ledger:      ledger,
		adminWallet: GetConfig().AdminWallet,
		log:         logger.WithField("component", "referral.Distributor"),
	}
}

// WithAdminWallet overrides the configured admin address, for tests.
func (d *Distributor) WithAdminWallet(address string) *Distributor {
	d.adminWallet = address
	return d
}

// DistributeFee pays up to three ancestors a fee of volume * hopsRemaining *
// 0.001 each, then the flat volume * 0.01 administrative cut. The transfers
// all come out of the trading user's wallet. The first failed transfer
// aborts the rest of the distribution.
func (d *Distributor) DistributeFee(ctx context.Context, trader *model.User, seed string, volume decimal.Decimal) error {
	if d.adminWallet != "" && trader.Wallet.Address == d.adminWallet {
		return nil
	}

	// Ancestry may be corrupt (self-links, cycles); the visited set bounds
	// the walk regardless of what the parent pointers do.
	visited := map[int64]bool{trader.TgID: true}
	current := trader

	for hops := maxHops; hops > 0; {
		if current.ParentTgID == 0 {
			break
		}

		parent, err := d.users.GetByTgID(ctx, current.ParentTgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return fmt.Errorf("failed to load referral parent %d: %w", current.ParentTgID, err)
		}

		if visited[parent.TgID] {
			d.log.WithFields(map[string]interface{}{
				"trader": trader.TgID,
				"parent": parent.TgID,
			}).Warn("referral ancestry contains a cycle, stopping distribution")
			break
		}
		visited[parent.TgID] = true

		// Degenerate self-link: the parent holds the same wallet. Advance
		// without paying.
		if parent.Wallet.Address == current.Wallet.Address {
			current = parent
			hops--
			continue
		}

		fee := volume.Mul(hopRate).Mul(decimal.NewFromInt(int64(hops))).Truncate(feePrecision)
		if _, err := d.ledger.TransferXRP(ctx, seed, trader.Wallet.Address, parent.Wallet.Address, fee); err != nil {
			return fmt.Errorf("referral transfer to %s failed: %w", parent.Wallet.Address, err)
		}

		if err := d.users.CreditReferralEarnings(ctx, parent.ID, fee); err != nil {
			return fmt.Errorf("failed to credit referral earnings for user %d: %w", parent.ID, err)
		}

		d.log.WithFields(map[string]interface{}{
			"trader": trader.TgID,
			"parent": parent.TgID,
			"hops":   hops,
			"fee":    fee.String(),
		}).Info("referral fee paid")

		current = parent
		hops--
	}

	if d.adminWallet == "" {
		return nil
	}

	adminFee := volume.Mul(adminRate).Truncate(feePrecision)
	if _, err := d.ledger.TransferXRP(ctx, seed, trader.Wallet.Address, d.adminWallet, adminFee); err != nil {
		return fmt.Errorf("admin fee transfer failed: %w", err)
	}

	return nil
}
