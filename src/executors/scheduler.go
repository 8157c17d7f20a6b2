// Package executors drives the periodic scan over every user's pending
// limit orders: evaluating trigger conditions, executing qualifying trades
// and retiring settled orders.
package executors

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/1001pro/xrp-trading-bot/src/evaluator"
	"github.com/1001pro/xrp-trading-bot/src/model"
	"github.com/1001pro/xrp-trading-bot/src/oracle"
)

// Scheduler states. A cycle that is still running when the next tick fires
// causes that tick to be dropped, never queued.
const (
	stateIdle int32 = iota
	stateRunning
)

type userRepository interface {
	FindWithPendingOrders(ctx context.Context) ([]model.User, error)
}

type orderRepository interface {
	RemoveByIDs(ctx context.Context, userID uint, ids []string) error
}

type balanceSource interface {
	AvailableBalance(ctx context.Context, address string) (decimal.Decimal, error)
	TrustlineBalance(ctx context.Context, address, currency, issuer string) (decimal.Decimal, error)
}

type priceOracle interface {
	GetTokenDetails(ctx context.Context, address string) (*oracle.TokenDetails, error)
}

type tradeExecutor interface {
	ExecuteTrade(ctx context.Context, user *model.User, order *model.Order, quantity decimal.Decimal, price decimal.Decimal) (bool, error)
}

type removalNotifier interface {
	OrderClosed(ctx context.Context, tgID int64, o *model.Order, reason model.RemovalReason)
}

// Scheduler owns the scan cycle. Users are processed concurrently; orders
// within one user strictly in sequence.
type Scheduler struct {
	users  userRepository
	orders orderRepository
	ledger balanceSource
	prices priceOracle
	trader tradeExecutor
	notify removalNotifier

	state atomic.Int32
	log   *logger.Entry

	now func() time.Time
}

func NewScheduler(
	users userRepository,
	orders orderRepository,
	ledger balanceSource,
	prices priceOracle,
	trader tradeExecutor,
	notify removalNotifier,
) *Scheduler {
	return &Scheduler{
		users:  users,
		orders: orders,
		ledger: ledger,
		prices: prices,
		trader: trader,
		notify: notify,
		log:    logger.WithField("component", "executors.Scheduler"),
		now:    time.Now,
	}
}

// removal marks one order for retirement at the end of the user's slice.
// Orders are matched by their stable id, so applying removals can never
// disturb the position of a still-pending sibling.
type removal struct {
	order  model.Order
	reason model.RemovalReason
}

// RunScanCycle executes one full scan over all users holding pending orders.
// If a cycle is already in progress the call is a complete no-op. The guard
// is cleared on every exit path, so a failing cycle can never wedge the
// scheduler.
func (s *Scheduler) RunScanCycle(ctx context.Context) {
	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		s.log.Debug("scan cycle already running, dropping tick")
		return
	}
	defer s.state.Store(stateIdle)

	started := s.now()

	users, err := s.users.FindWithPendingOrders(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to load users with pending orders")
		return
	}
	if len(users) == 0 {
		return
	}

	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(u *model.User) {
			defer wg.Done()
			s.scanUser(ctx, u)
		}(&users[i])
	}
	wg.Wait()

	s.log.WithFields(map[string]interface{}{
		"users":    len(users),
		"duration": s.now().Sub(started).String(),
	}).Info("scan cycle finished")
}

// scanUser walks one user's order list in order, collects removals and
// applies them as a single persisted write.
func (s *Scheduler) scanUser(ctx context.Context, u *model.User) {
	availableBalance, err := s.ledger.AvailableBalance(ctx, u.Wallet.Address)
	if err != nil {
		// Connectivity trouble: leave this user's orders pending for the
		// next cycle rather than retiring them on a hiccup.
		s.log.WithError(err).WithField("user", u.TgID).
			Warn("failed to fetch available balance, orders left pending")
		return
	}

	var removals []removal
	for i := range u.Orders {
		order := &u.Orders[i]
		if reason, remove := s.processOrder(ctx, u, order, availableBalance); remove {
			removals = append(removals, removal{order: *order, reason: reason})
		}
	}

	if len(removals) == 0 {
		return
	}

	removedIDs := make([]string, 0, len(removals))
	for _, r := range removals {
		removedIDs = append(removedIDs, r.order.ID)
	}
	if err := s.orders.RemoveByIDs(ctx, u.ID, removedIDs); err != nil {
		s.log.WithError(err).WithField("user", u.TgID).
			Error("failed to remove retired orders")
		return
	}
	u.Orders = filterOrders(u.Orders, removals)

	for i := range removals {
		r := &removals[i]
		// Success removals were already confirmed by the trade executor.
		if r.reason == model.RemovalSuccess {
			continue
		}
		s.notify.OrderClosed(ctx, u.TgID, &r.order, r.reason)
	}
}

// processOrder decides the fate of a single order. A panic while processing
// it retires the order with reason error and never aborts the user's
// remaining orders.
func (s *Scheduler) processOrder(ctx context.Context, u *model.User, order *model.Order, availableBalance decimal.Decimal) (reason model.RemovalReason, remove bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(map[string]interface{}{
				"user":  u.TgID,
				"order": order.ID,
				"panic": r,
			}).Error("panic while processing order")
			reason, remove = model.RemovalError, true
		}
	}()

	balance := availableBalance
	if order.Side == model.OrderSideSell {
		currency, issuer := order.Token()
		tokenBalance, err := s.ledger.TrustlineBalance(ctx, u.Wallet.Address, currency, issuer)
		if err != nil {
			s.log.WithError(err).WithField("order", order.ID).
				Warn("failed to fetch token balance, order left pending")
			return "", false
		}
		balance = tokenBalance
	}

	// Balance and expiry verdicts are final without a price lookup.
	if pre := evaluator.Precheck(order, balance, s.now()); pre.Outcome != evaluator.OutcomeHold {
		return removalReason(pre.Outcome), true
	}

	details, err := s.prices.GetTokenDetails(ctx, order.TokenAddress)
	if err != nil {
		if errors.Is(err, oracle.ErrTokenNotFound) {
			s.log.WithField("order", order.ID).
				Warn("token unknown to price oracle, retiring order")
			return model.RemovalError, true
		}
		s.log.WithError(err).WithField("order", order.ID).
			Warn("price lookup failed, order left pending")
		return "", false
	}

	decision := evaluator.Evaluate(order, balance, details.PriceUsd, s.now())
	switch decision.Outcome {
	case evaluator.OutcomeFail, evaluator.OutcomeExpired:
		return removalReason(decision.Outcome), true
	case evaluator.OutcomeTrigger:
		executed, err := s.trader.ExecuteTrade(ctx, u, order, decision.Quantity, details.PriceUsd)
		if err != nil {
			s.log.WithError(err).WithField("order", order.ID).
				Warn("trade execution failed, order left pending")
			return "", false
		}
		if !executed {
			// Finalized without success: eligible for retry next cycle.
			return "", false
		}
		return model.RemovalSuccess, true
	}

	return "", false
}

func removalReason(outcome evaluator.Outcome) model.RemovalReason {
	if outcome == evaluator.OutcomeExpired {
		return model.RemovalExpired
	}
	return model.RemovalFail
}

// filterOrders returns the orders that survive the cycle, preserving their
// original relative order.
func filterOrders(orders []model.Order, removals []removal) []model.Order {
	drop := make(map[string]struct{}, len(removals))
	for _, r := range removals {
		drop[r.order.ID] = struct{}{}
	}

	surviving := make([]model.Order, 0, len(orders)-len(removals))
	for _, o := range orders {
		if _, gone := drop[o.ID]; gone {
			continue
		}
		surviving = append(surviving, o)
	}
	return surviving
}
