// Package orders implements the placement and cancellation flows for
// pending limit orders. The scan scheduler consumes what this package
// creates; the two never share state beyond the order store.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/1001pro/xrp-trading-bot/src/ledger"
	"github.com/1001pro/xrp-trading-bot/src/model"
	"github.com/1001pro/xrp-trading-bot/src/oracle"
)

// Validation failures surfaced to the caller. Everything else coming out of
// PlaceOrder is an infrastructure error.
var (
	ErrInvalidSide        = errors.New("side must be buy or sell")
	ErrInvalidTargetPrice = errors.New("target price must be positive")
	ErrInvalidAmount      = errors.New("buy amount must be a positive XRP quantity")
	ErrInvalidPercentage  = errors.New("sell amount must be a percentage in (0, 100]")
	ErrUnknownToken       = errors.New("token is not tradable on the ledger")
)

type orderStore interface {
	Create(ctx context.Context, order *model.Order) error
	FindByUser(ctx context.Context, userID uint) ([]model.Order, error)
	DeleteByIDForUser(ctx context.Context, userID uint, orderID string) error
}

type tokenValidator interface {
	IsValidToken(ctx context.Context, currency, issuer string) (bool, error)
}

type priceSource interface {
	GetTokenDetails(ctx context.Context, address string) (*oracle.TokenDetails, error)
}

// PlaceOrderInput carries the user-supplied half of an order. The engine
// fills in identity, naming and the initial price.
type PlaceOrderInput struct {
	Side         model.OrderSide `json:"side"`
	TokenAddress string          `json:"token_address"`
	TargetPrice  decimal.Decimal `json:"target_price"`
	Amount       decimal.Decimal `json:"amount"`
	Expiry       string          `json:"expiry"`
}

// Service owns order placement, listing and cancellation.
type Service struct {
	store  orderStore
	ledger tokenValidator
	prices priceSource
	log    *logger.Entry

	now func() time.Time
}

func NewService(store orderStore, ledger tokenValidator, prices priceSource) *Service {
	return &Service{
		store:  store,
		ledger: ledger,
		prices: prices,
		log:    logger.WithField("component", "orders.Service"),
		now:    time.Now,
	}
}

// PlaceOrder validates the input, snapshots the current token price and
// persists a new pending order owned by the user.
func (s *Service) PlaceOrder(ctx context.Context, user *model.User, input PlaceOrderInput) (*model.Order, error) {
	if input.Side != model.OrderSideBuy && input.Side != model.OrderSideSell {
		return nil, ErrInvalidSide
	}
	if !input.TargetPrice.IsPositive() {
		return nil, ErrInvalidTargetPrice
	}
	if input.Side == model.OrderSideBuy && !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if input.Side == model.OrderSideSell &&
		(!input.Amount.IsPositive() || input.Amount.GreaterThan(decimal.NewFromInt(100))) {
		return nil, ErrInvalidPercentage
	}

	ttl, err := ParseExpiry(input.Expiry)
	if err != nil {
		return nil, err
	}

	order := model.Order{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Side:         input.Side,
		TokenAddress: input.TokenAddress,
		TargetPrice:  input.TargetPrice,
		Amount:       input.Amount,
		ExpiresAt:    s.now().Add(ttl),
	}

	currency, issuer := order.Token()
	// Issuer shape check before any network round trip.
	if issuer == "" || !ledger.IsValidAddress(issuer) {
		return nil, ErrUnknownToken
	}

	valid, err := s.ledger.IsValidToken(ctx, currency, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token on ledger: %w", err)
	}
	if !valid {
		return nil, ErrUnknownToken
	}

	details, err := s.prices.GetTokenDetails(ctx, input.TokenAddress)
	if err != nil {
		if errors.Is(err, oracle.ErrTokenNotFound) {
			return nil, ErrUnknownToken
		}
		return nil, fmt.Errorf("failed to fetch token price: %w", err)
	}
	order.TokenName = details.Name
	order.InitialPrice = details.PriceUsd

	if err := s.store.Create(ctx, &order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user":  user.TgID,
		"order": order.ID,
		"side":  order.Side,
		"token": order.TokenAddress,
	}).Info("limit order placed")

	return &order, nil
}

// ListOrders returns the user's pending orders in creation order.
func (s *Service) ListOrders(ctx context.Context, user *model.User) ([]model.Order, error) {
	return s.store.FindByUser(ctx, user.ID)
}

// CancelOrder removes one pending order by its id. The id acts as the
// cancellation token, so removal cannot shift any sibling order.
func (s *Service) CancelOrder(ctx context.Context, user *model.User, orderID string) error {
	return s.store.DeleteByIDForUser(ctx, user.ID, orderID)
}
