package notify

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/1001pro/xrp-trading-bot/src/model"
)

const pendingText = "Transaction is pending..."

func buySuccessText(o *model.Order, xrp, tokens decimal.Decimal, hash, txScanURL string, price decimal.Decimal) string {
	return fmt.Sprintf(
		"\U0001F7E2 <b>Buying <b>%s</b> is success! \U0001F7E2</b>\n"+
			"<code>%s</code>\n"+
			"You bought <b>%s %s</b> using <b>%s XRP</b>\n"+
			"Price: <b>$%s</b>\n"+
			"\U0001F4DD <a href='%s/%s'>Transaction</a>",
		o.TokenName, o.TokenAddress, tokens.String(), o.TokenName, xrp.String(),
		price.Truncate(8).String(), txScanURL, hash,
	)
}

func sellSuccessText(o *model.Order, xrp, tokens decimal.Decimal, hash, txScanURL string, price decimal.Decimal) string {
	return fmt.Sprintf(
		"\U0001F7E2 <b>Selling <b>%s</b> is success! \U0001F7E2</b>\n"+
			"<code>%s</code>\n"+
			"You sold <b>%s %s</b> for <b>%s XRP</b>\n"+
			"Price: <b>$%s</b>\n"+
			"\U0001F4DD <a href='%s/%s'>Transaction</a>",
		o.TokenName, o.TokenAddress, tokens.String(), o.TokenName, xrp.String(),
		price.Truncate(8).String(), txScanURL, hash,
	)
}

func orderClosedText(o *model.Order, reason model.RemovalReason) string {
	var lead string
	switch reason {
	case model.RemovalFail:
		lead = "❌ Insufficient wallet balance, automatically close pending " + string(o.Side) + " order:"
	case model.RemovalExpired:
		lead = "❌ Order has expired, automatically close pending " + string(o.Side) + " order:"
	default:
		lead = "⚠ Something went wrong, automatically close pending " + string(o.Side) + " order:"
	}

	return fmt.Sprintf("%s\n\U0001F4CC %s\n<code>%s</code>", lead, o.TokenName, o.TokenAddress)
}
