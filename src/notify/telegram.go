// Package notify delivers user-facing messages over the Telegram Bot API.
// Delivery is fire-and-forget: the engine never waits on or reacts to a
// delivery failure, it only logs it.
package notify

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/1001pro/xrp-trading-bot/src/model"
)

type Telegram struct {
	http      *resty.Client
	txScanURL string
	log       *logger.Entry
}

func NewTelegram() *Telegram {
	config := GetConfig()

	http := resty.New().
		SetBaseURL(config.APIURL + "/bot" + config.BotToken).
		SetTimeout(config.RequestTimeout)

	return &Telegram{
		http:      http,
		txScanURL: config.TxScanURL,
		log:       logger.WithField("component", "notify.Telegram"),
	}
}

// WithBaseURL points the client at a different API host, for tests.
func (t *Telegram) WithBaseURL(baseURL string) *Telegram {
	t.http.SetBaseURL(baseURL)
	return t
}

func (t *Telegram) send(ctx context.Context, tgID int64, text string) {
	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":    tgID,
			"text":       text,
			"parse_mode": "HTML",
			"link_preview_options": map[string]interface{}{
				"is_disabled": true,
			},
		}).
		Post("/sendMessage")

	if err != nil {
		t.log.WithError(err).WithField("tgId", tgID).Warn("failed to send notification")
		return
	}
	if resp.IsError() {
		t.log.WithFields(map[string]interface{}{
			"tgId":   tgID,
			"status": resp.StatusCode(),
		}).Warn("notification rejected by telegram")
	}
}

// TradePending tells the user their trade was submitted to the ledger.
func (t *Telegram) TradePending(ctx context.Context, tgID int64) {
	t.send(ctx, tgID, pendingText)
}

// TradeExecuted confirms a finalized trade with the realized amounts and a
// link to the transaction.
func (t *Telegram) TradeExecuted(ctx context.Context, tgID int64, o *model.Order, xrp, tokens decimal.Decimal, hash string, price decimal.Decimal) {
	if o.Side == model.OrderSideBuy {
		t.send(ctx, tgID, buySuccessText(o, xrp, tokens, hash, t.txScanURL, price))
		return
	}
	t.send(ctx, tgID, sellSuccessText(o, xrp, tokens, hash, t.txScanURL, price))
}

// OrderClosed tells the user a pending order was retired without executing.
func (t *Telegram) OrderClosed(ctx context.Context, tgID int64, o *model.Order, reason model.RemovalReason) {
	t.send(ctx, tgID, orderClosedText(o, reason))
}
