package controller

import (
	"context"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/1001pro/xrp-trading-bot/src/ledger"
	"github.com/1001pro/xrp-trading-bot/src/model"
	"github.com/1001pro/xrp-trading-bot/src/security"
)

type ledgerClient interface {
	BuyOffer(ctx context.Context, seed, account, currency, issuer string, xrpAmount decimal.Decimal) (*ledger.TxResult, error)
	SellOffer(ctx context.Context, seed, account, currency, issuer string, tokenAmount decimal.Decimal) (*ledger.TxResult, error)
}

type feeDistributor interface {
	DistributeFee(ctx context.Context, trader *model.User, seed string, volume decimal.Decimal) error
}

type tradeNotifier interface {
	TradePending(ctx context.Context, tgID int64)
	TradeExecuted(ctx context.Context, tgID int64, o *model.Order, xrp, tokens decimal.Decimal, hash string, price decimal.Decimal)
}

// TradeController submits a single triggered order to the ledger and settles
// its aftermath: realized amounts, referral fees, user confirmation.
type TradeController struct {
	ledger ledgerClient
	fees   feeDistributor
	notify tradeNotifier
	log    *logger.Entry
}

func NewTradeController(ledgerClient ledgerClient, fees feeDistributor, notify tradeNotifier) *TradeController {
	return &TradeController{
		ledger: ledgerClient,
		fees:   fees,
		notify: notify,
		log:    logger.WithField("component", "TradeController"),
	}
}

// ExecuteTrade runs one immediate-or-cancel exchange offer. It returns
// (true, nil) only when the ledger finalized the offer successfully;
// (false, nil) when the ledger finalized a non-success result or the offer
// lapsed unconfirmed. Transport errors propagate so the scan scheduler's
// per-order guard decides what happens to the order.
func (t *TradeController) ExecuteTrade(ctx context.Context, user *model.User, order *model.Order, quantity decimal.Decimal, price decimal.Decimal) (bool, error) {
	t.notify.TradePending(ctx, user.TgID)

	seed, err := security.DecryptString(user.Wallet.SeedCipher)
	if err != nil {
		return false, err
	}

	currency, issuer := order.Token()

	var result *ledger.TxResult
	if order.Side == model.OrderSideBuy {
		result, err = t.ledger.BuyOffer(ctx, seed, user.Wallet.Address, currency, issuer, quantity)
	} else {
		result, err = t.ledger.SellOffer(ctx, seed, user.Wallet.Address, currency, issuer, quantity)
	}
	if err != nil {
		return false, err
	}

	if !result.Succeeded() {
		t.log.WithFields(map[string]interface{}{
			"user":   user.TgID,
			"order":  order.ID,
			"hash":   result.Hash,
			"result": result.Code,
		}).Info("offer did not execute")
		return false, nil
	}

	delta, err := ledger.BalanceChanges(result.Meta, user.Wallet.Address)
	if err != nil {
		return false, err
	}

	// Best-effort: the trade itself is done, a failed fee payout must not
	// undo it or hide the confirmation from the user.
	if err := t.fees.DistributeFee(ctx, user, seed, delta.XRP); err != nil {
		t.log.WithError(err).WithField("user", user.TgID).
			Error("referral fee distribution failed")
	}

	t.notify.TradeExecuted(ctx, user.TgID, order, delta.XRP, delta.Token, result.Hash, price)

	t.log.WithFields(map[string]interface{}{
		"user":   user.TgID,
		"order":  order.ID,
		"hash":   result.Hash,
		"xrp":    delta.XRP.String(),
		"tokens": delta.Token.String(),
	}).Info("trade executed")

	return true, nil
}
