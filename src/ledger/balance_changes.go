package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceDelta holds the absolute realized amounts one transaction moved for
// a single account: XRP on one side, the issued token on the other.
type BalanceDelta struct {
	XRP   decimal.Decimal
	Token decimal.Decimal
}

type metaNode struct {
	CreatedNode  *nodeContent `json:"CreatedNode"`
	ModifiedNode *nodeContent `json:"ModifiedNode"`
	DeletedNode  *nodeContent `json:"DeletedNode"`
}

func (n metaNode) content() *nodeContent {
	switch {
	case n.ModifiedNode != nil:
		return n.ModifiedNode
	case n.CreatedNode != nil:
		return n.CreatedNode
	case n.DeletedNode != nil:
		return n.DeletedNode
	}
	return nil
}

type nodeContent struct {
	LedgerEntryType string          `json:"LedgerEntryType"`
	FinalFields     json.RawMessage `json:"FinalFields"`
	NewFields       json.RawMessage `json:"NewFields"`
	PreviousFields  json.RawMessage `json:"PreviousFields"`
}

func (n *nodeContent) fields() json.RawMessage {
	if n.FinalFields != nil {
		return n.FinalFields
	}
	return n.NewFields
}

type accountRootFields struct {
	Account string `json:"Account"`
	Balance string `json:"Balance"`
}

type rippleStateFields struct {
	Balance struct {
		Value string `json:"value"`
	} `json:"Balance"`
	HighLimit struct {
		Issuer string `json:"issuer"`
	} `json:"HighLimit"`
	LowLimit struct {
		Issuer string `json:"issuer"`
	} `json:"LowLimit"`
}

// BalanceChanges extracts the balance movement attributed to one account
// from a validated transaction's metadata. Deltas of other parties touched
// by the same transaction are ignored.
func BalanceChanges(meta json.RawMessage, account string) (BalanceDelta, error) {
	var parsed struct {
		AffectedNodes []metaNode `json:"AffectedNodes"`
	}
	if err := json.Unmarshal(meta, &parsed); err != nil {
		return BalanceDelta{}, fmt.Errorf("malformed transaction meta: %w", err)
	}

	delta := BalanceDelta{XRP: decimal.Zero, Token: decimal.Zero}

	for _, node := range parsed.AffectedNodes {
		content := node.content()
		if content == nil {
			continue
		}

		switch content.LedgerEntryType {
		case "AccountRoot":
			var final accountRootFields
			if err := json.Unmarshal(content.fields(), &final); err != nil || final.Account != account {
				continue
			}
			change, err := dropsChange(final.Balance, content.PreviousFields)
			if err != nil {
				return BalanceDelta{}, err
			}
			delta.XRP = delta.XRP.Add(change.Abs())

		case "RippleState":
			var final rippleStateFields
			if err := json.Unmarshal(content.fields(), &final); err != nil {
				continue
			}
			if final.HighLimit.Issuer != account && final.LowLimit.Issuer != account {
				continue
			}
			change, err := tokenChange(final.Balance.Value, content.PreviousFields)
			if err != nil {
				return BalanceDelta{}, err
			}
			delta.Token = delta.Token.Add(change.Abs())
		}
	}

	return delta, nil
}

func dropsChange(finalBalance string, previous json.RawMessage) (decimal.Decimal, error) {
	final, err := decimal.NewFromString(finalBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed account balance %q: %w", finalBalance, err)
	}

	prev := decimal.Zero
	if previous != nil {
		var fields accountRootFields
		if err := json.Unmarshal(previous, &fields); err == nil && fields.Balance != "" {
			prev, err = decimal.NewFromString(fields.Balance)
			if err != nil {
				return decimal.Zero, fmt.Errorf("malformed previous balance %q: %w", fields.Balance, err)
			}
		}
	}

	return final.Sub(prev).Div(dropsPerXRP), nil
}

func tokenChange(finalValue string, previous json.RawMessage) (decimal.Decimal, error) {
	final, err := decimal.NewFromString(finalValue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed trustline balance %q: %w", finalValue, err)
	}

	prev := decimal.Zero
	if previous != nil {
		var fields rippleStateFields
		if err := json.Unmarshal(previous, &fields); err == nil && fields.Balance.Value != "" {
			prev, err = decimal.NewFromString(fields.Balance.Value)
			if err != nil {
				return decimal.Zero, fmt.Errorf("malformed previous trustline balance %q: %w", fields.Balance.Value, err)
			}
		}
	}

	return final.Sub(prev), nil
}
