package referral

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/1001pro/xrp-trading-bot/src/model"
)

type stubUserStore struct {
	users map[int64]*model.User

	credited []struct {
		UserID uint
		Fee    decimal.Decimal
	}
}

func (s *stubUserStore) GetByTgID(_ context.Context, tgID int64) (*model.User, error) {
	u, ok := s.users[tgID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (s *stubUserStore) CreditReferralEarnings(_ context.Context, userID uint, fee decimal.Decimal) error {
	s.credited = append(s.credited, struct {
		UserID uint
		Fee    decimal.Decimal
	}{userID, fee})
	return nil
}

type stubTransferer struct {
	transfers []struct {
		Destination string
		Amount      decimal.Decimal
	}

	failAfter int // fail the n-th transfer (1-based), 0 = never
}

func (s *stubTransferer) TransferXRP(_ context.Context, _, _, destination string, amount decimal.Decimal) (string, error) {
	if s.failAfter > 0 && len(s.transfers)+1 == s.failAfter {
		return "", errors.New("tecUNFUNDED_PAYMENT")
	}
	s.transfers = append(s.transfers, struct {
		Destination string
		Amount      decimal.Decimal
	}{destination, amount})
	return "HASH", nil
}

func user(tgID int64, id uint, address string, parent int64) *model.User {
	return &model.User{
		ID:         id,
		TgID:       tgID,
		ParentTgID: parent,
		Wallet:     model.Wallet{Address: address},
	}
}

func newTestDistributor(users *stubUserStore, ledger *stubTransferer, admin string) *Distributor {
	return NewDistributor(users, ledger).WithAdminWallet(admin)
}

func TestDistributeFeeThreeAncestorsAndAdmin(t *testing.T) {
	trader := user(1, 1, "rTrader", 2)
	store := &stubUserStore{users: map[int64]*model.User{
		2: user(2, 2, "rParent", 3),
		3: user(3, 3, "rGrandParent", 4),
		4: user(4, 4, "rGreatGrandParent", 0),
	}}
	ledger := &stubTransferer{}

	d := newTestDistributor(store, ledger, "rAdmin")

	err := d.DistributeFee(context.Background(), trader, "sSeed", decimal.NewFromInt(1000))
	require.NoError(t, err)

	require.Len(t, ledger.transfers, 4)
	// Direct referrer earns the 3-hop weight, then it decays.
	assert.Equal(t, "rParent", ledger.transfers[0].Destination)
	assert.Equal(t, "3", ledger.transfers[0].Amount.String())
	assert.Equal(t, "rGrandParent", ledger.transfers[1].Destination)
	assert.Equal(t, "2", ledger.transfers[1].Amount.String())
	assert.Equal(t, "rGreatGrandParent", ledger.transfers[2].Destination)
	assert.Equal(t, "1", ledger.transfers[2].Amount.String())
	assert.Equal(t, "rAdmin", ledger.transfers[3].Destination)
	assert.Equal(t, "10", ledger.transfers[3].Amount.String())

	require.Len(t, store.credited, 3)
	assert.Equal(t, uint(2), store.credited[0].UserID)
	assert.Equal(t, "3", store.credited[0].Fee.String())
}

func TestDistributeFeeNoAncestorsStillPaysAdmin(t *testing.T) {
	trader := user(1, 1, "rTrader", 0)
	store := &stubUserStore{users: map[int64]*model.User{}}
	ledger := &stubTransferer{}

	d := newTestDistributor(store, ledger, "rAdmin")

	err := d.DistributeFee(context.Background(), trader, "sSeed", decimal.NewFromInt(100))
	require.NoError(t, err)

	require.Len(t, ledger.transfers, 1)
	assert.Equal(t, "rAdmin", ledger.transfers[0].Destination)
	assert.Equal(t, "1", ledger.transfers[0].Amount.String())
}

func TestDistributeFeeNoAdminConfigured(t *testing.T) {
	trader := user(1, 1, "rTrader", 2)
	store := &stubUserStore{users: map[int64]*model.User{
		2: user(2, 2, "rParent", 0),
	}}
	ledger := &stubTransferer{}

	d := newTestDistributor(store, ledger, "")

	err := d.DistributeFee(context.Background(), trader, "sSeed", decimal.NewFromInt(100))
	require.NoError(t, err)

	require.Len(t, ledger.transfers, 1)
	assert.Equal(t, "rParent", ledger.transfers[0].Destination)
}

func TestDistributeFeeSkipsAdminTrader(t *testing.T) {
	trader := user(1, 1, "rAdmin", 2)
	store := &stubUserStore{users: map[int64]*model.User{
		2: user(2, 2, "rParent", 0),
	}}
	ledger := &stubTransferer{}

	d := newTestDistributor(store, ledger, "rAdmin")

	err := d.DistributeFee(context.Background(), trader, "sSeed", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Empty(t, ledger.transfers)
}

func TestDistributeFeeSelfLinkAdvancesWithoutPaying(t *testing.T) {
	trader := user(1, 1, "rShared", 2)
	store := &stubUserStore{users: map[int64]*model.User{
		// Parent shares the trader's wallet: consumed a hop, no payout.
		2: user(2, 2, "rShared", 3),
		3: user(3, 3, "rGrandParent", 0),
	}}
	ledger := &stubTransferer{}

	d := newTestDistributor(store, ledger, "")

	err := d.DistributeFee(context.Background(), trader, "sSeed", decimal.NewFromInt(1000))
	require.NoError(t, err)

	require.Len(t, ledger.transfers, 1)
	assert.Equal(t, "rGrandParent", ledger.transfers[0].Destination)
	// Grandparent is paid at 2 hops remaining.
	assert.Equal(t, "2", ledger.transfers[0].Amount.String())
}

func TestDistributeFeeDetectsCycle(t *testing.T) {
	trader := user(1, 1, "rTrader", 2)
	store := &stubUserStore{users: map[int64]*model.User{
		2: user(2, 2, "rParent", 1), // points back at the trader
		1: trader,
	}}
	ledger := &stubTransferer{}

	d := newTestDistributor(store, ledger, "")

	err := d.DistributeFee(context.Background(), trader, "sSeed", decimal.NewFromInt(1000))
	require.NoError(t, err)

	// Parent is paid once; the walk stops when it would revisit the trader.
	require.Len(t, ledger.transfers, 1)
	assert.Equal(t, "rParent", ledger.transfers[0].Destination)
}

func TestDistributeFeeAbortsOnTransferFailure(t *testing.T) {
	trader := user(1, 1, "rTrader", 2)
	store := &stubUserStore{users: map[int64]*model.User{
		2: user(2, 2, "rParent", 3),
		3: user(3, 3, "rGrandParent", 0),
	}}
	ledger := &stubTransferer{failAfter: 2}

	d := newTestDistributor(store, ledger, "rAdmin")

	err := d.DistributeFee(context.Background(), trader, "sSeed", decimal.NewFromInt(1000))
	require.Error(t, err)

	// First transfer went out and is not reversed; nothing after the failure.
	require.Len(t, ledger.transfers, 1)
	assert.Equal(t, "rParent", ledger.transfers[0].Destination)
	require.Len(t, store.credited, 1)
}

func TestDistributeFeeRoundsDownToSixDecimals(t *testing.T) {
	trader := user(1, 1, "rTrader", 2)
	store := &stubUserStore{users: map[int64]*model.User{
		2: user(2, 2, "rParent", 0),
	}}
	ledger := &stubTransferer{}

	d := newTestDistributor(store, ledger, "")

	// 0.1234567 x 3 x 0.001 = 0.0003703701, truncated to 0.00037
	err := d.DistributeFee(context.Background(), trader, "sSeed", decimal.RequireFromString("0.1234567"))
	require.NoError(t, err)

	require.Len(t, ledger.transfers, 1)
	assert.Equal(t, "0.00037", ledger.transfers[0].Amount.String())
}
