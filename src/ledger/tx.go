package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OfferCreate flags.
const (
	tfImmediateOrCancel uint32 = 0x00020000
	tfSell              uint32 = 0x00080000
)

const txResultSuccess = "tesSUCCESS"

// TxResult is the finalized (or lapsed) outcome of one submitted transaction.
type TxResult struct {
	Hash      string
	Code      string
	Validated bool
	Meta      json.RawMessage
}

// Succeeded reports whether the transaction was validated by consensus with
// a success result code. A transaction that lapsed past its ledger window is
// simply not executed.
func (r *TxResult) Succeeded() bool {
	return r.Validated && r.Code == txResultSuccess
}

func xrpToDrops(amount decimal.Decimal) string {
	return amount.Mul(dropsPerXRP).Truncate(0).String()
}

func issuedAmount(currency, issuer string, value decimal.Decimal) map[string]interface{} {
	return map[string]interface{}{
		"currency": currency,
		"issuer":   issuer,
		"value":    value.String(),
	}
}

// SellOffer submits an immediate-or-cancel offer giving tokenAmount of the
// issued token for whatever XRP the books yield.
func (c *Client) SellOffer(ctx context.Context, seed, account, currency, issuer string, tokenAmount decimal.Decimal) (*TxResult, error) {
	tx := map[string]interface{}{
		"TransactionType": "OfferCreate",
		"Account":         account,
		"TakerGets":       issuedAmount(currency, issuer, tokenAmount),
		"TakerPays":       xrpToDrops(decimal.RequireFromString("0.000001")),
		"Flags":           tfImmediateOrCancel | tfSell,
		"Fee":             "12",
	}
	return c.submitAndWait(ctx, tx, seed)
}

// BuyOffer submits an immediate-or-cancel offer giving xrpAmount XRP for
// whatever quantity of the issued token the books yield.
func (c *Client) BuyOffer(ctx context.Context, seed, account, currency, issuer string, xrpAmount decimal.Decimal) (*TxResult, error) {
	tx := map[string]interface{}{
		"TransactionType": "OfferCreate",
		"Account":         account,
		"TakerPays":       issuedAmount(currency, issuer, decimal.RequireFromString("0.0001")),
		"TakerGets":       xrpToDrops(xrpAmount.Truncate(6)),
		"Flags":           tfImmediateOrCancel | tfSell,
		"Fee":             "100",
	}
	return c.submitAndWait(ctx, tx, seed)
}

// TransferXRP sends a direct XRP payment and returns the transaction hash.
// Unlike offers, an unsuccessful payment is reported as an error, because
// callers (the fee distributor) must abort on the first failed transfer.
func (c *Client) TransferXRP(ctx context.Context, seed, account, destination string, amount decimal.Decimal) (string, error) {
	tx := map[string]interface{}{
		"TransactionType": "Payment",
		"Account":         account,
		"Destination":     destination,
		"Amount":          xrpToDrops(amount),
		"Fee":             "12",
	}

	result, err := c.submitAndWait(ctx, tx, seed)
	if err != nil {
		return "", err
	}
	if !result.Validated {
		return "", fmt.Errorf("payment %s lapsed unconfirmed", result.Hash)
	}
	if result.Code != txResultSuccess {
		switch result.Code {
		case "tecUNFUNDED_PAYMENT":
			return "", fmt.Errorf("insufficient balance for transferring XRP (%s)", result.Code)
		case "tecNO_DST_INSUF_XRP":
			return "", fmt.Errorf("destination account does not exist and the payment is too small to create it (%s)", result.Code)
		default:
			return "", fmt.Errorf("payment failed with result %s", result.Code)
		}
	}

	return result.Hash, nil
}

// submitAndWait signs a transaction locally, submits the signed blob and
// waits for consensus to finalize it within the configured ledger window. A
// transaction that lapses past LastLedgerSequence is returned with
// Validated=false and no error. The seed is only ever used in-process; no
// request carries it.
func (c *Client) submitAndWait(ctx context.Context, tx map[string]interface{}, seed string) (*TxResult, error) {
	index, err := c.LedgerIndex(ctx)
	if err != nil {
		return nil, err
	}
	lastLedger := index + c.cfg.OfferLedgerWindow
	tx["LastLedgerSequence"] = lastLedger

	account, _ := tx["Account"].(string)
	sequence, err := c.AccountSequence(ctx, account)
	if err != nil {
		return nil, err
	}
	tx["Sequence"] = sequence

	blob, err := signTransaction(tx, seed)
	if err != nil {
		return nil, err
	}

	result, err := c.do(ctx, map[string]interface{}{
		"command": "submit",
		"tx_blob": blob,
	})
	if err != nil {
		return nil, err
	}

	var submitted struct {
		EngineResult string `json:"engine_result"`
		TxJSON       struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	}
	if err := json.Unmarshal(result, &submitted); err != nil {
		return nil, fmt.Errorf("malformed submit result: %w", err)
	}

	// tem/tef preliminary codes are final rejections; the transaction will
	// never appear in a validated ledger.
	if strings.HasPrefix(submitted.EngineResult, "tem") || strings.HasPrefix(submitted.EngineResult, "tef") {
		return &TxResult{Hash: submitted.TxJSON.Hash, Code: submitted.EngineResult}, nil
	}

	return c.waitForValidation(ctx, submitted.TxJSON.Hash, lastLedger)
}

func (c *Client) waitForValidation(ctx context.Context, hash string, lastLedger uint32) (*TxResult, error) {
	ticker := time.NewTicker(c.cfg.TxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		result, err := c.do(ctx, map[string]interface{}{
			"command":     "tx",
			"transaction": hash,
		})
		if err != nil {
			if !isAPIError(err, "txnNotFound") {
				return nil, err
			}
		} else {
			var parsed struct {
				Validated bool            `json:"validated"`
				Meta      json.RawMessage `json:"meta"`
			}
			if err := json.Unmarshal(result, &parsed); err != nil {
				return nil, fmt.Errorf("malformed tx result: %w", err)
			}

			if parsed.Validated {
				var meta struct {
					TransactionResult string `json:"TransactionResult"`
				}
				if err := json.Unmarshal(parsed.Meta, &meta); err != nil {
					return nil, fmt.Errorf("malformed tx meta: %w", err)
				}
				return &TxResult{
					Hash:      hash,
					Code:      meta.TransactionResult,
					Validated: true,
					Meta:      parsed.Meta,
				}, nil
			}
		}

		index, err := c.LedgerIndex(ctx)
		if err != nil {
			return nil, err
		}
		if index > lastLedger {
			c.log.WithField("hash", hash).Warn("transaction lapsed past its ledger window")
			return &TxResult{Hash: hash}, nil
		}
	}
}
