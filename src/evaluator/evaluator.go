// Package evaluator holds the pure decision logic for pending limit orders.
// It has no side effects; the scan scheduler feeds it live balances and
// prices and acts on the outcome.
package evaluator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/1001pro/xrp-trading-bot/src/model"
)

type Outcome int

const (
	OutcomeHold Outcome = iota
	OutcomeTrigger
	OutcomeFail
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTrigger:
		return "trigger"
	case OutcomeFail:
		return "fail"
	case OutcomeExpired:
		return "expired"
	default:
		return "hold"
	}
}

// Decision is the evaluation result. Quantity is only set on trigger: the
// XRP to spend for a buy, the token quantity to liquidate for a sell.
type Decision struct {
	Outcome  Outcome
	Quantity decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Precheck runs the balance and expiry checks only, in that order. It lets
// the scheduler retire doomed orders without paying for a price lookup.
// OutcomeHold here means "passed, price check still pending".
//
// The check order is deliberate: an expired order with no balance reports
// fail, not expired.
func Precheck(order *model.Order, balance decimal.Decimal, now time.Time) Decision {
	switch order.Side {
	case model.OrderSideBuy:
		if balance.LessThan(order.Amount) {
			return Decision{Outcome: OutcomeFail}
		}
	default:
		if balance.IsZero() {
			return Decision{Outcome: OutcomeFail}
		}
	}

	if order.Expired(now) {
		return Decision{Outcome: OutcomeExpired}
	}

	return Decision{Outcome: OutcomeHold}
}

// Evaluate runs the full decision ladder: balance, expiry, then price.
//
// Buy triggers when the market dips below the target price and spends the
// order's fixed XRP amount. Sell triggers when the market rises above the
// target and liquidates the order's percentage of the held token balance.
func Evaluate(order *model.Order, balance decimal.Decimal, priceUsd decimal.Decimal, now time.Time) Decision {
	if pre := Precheck(order, balance, now); pre.Outcome != OutcomeHold {
		return pre
	}

	switch order.Side {
	case model.OrderSideBuy:
		if priceUsd.LessThan(order.TargetPrice) {
			return Decision{Outcome: OutcomeTrigger, Quantity: order.Amount}
		}
	default:
		if priceUsd.GreaterThan(order.TargetPrice) {
			quantity := balance.Mul(order.Amount).Div(oneHundred)
			return Decision{Outcome: OutcomeTrigger, Quantity: quantity}
		}
	}

	return Decision{Outcome: OutcomeHold}
}
