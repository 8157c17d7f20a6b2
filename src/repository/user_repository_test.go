package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/1001pro/xrp-trading-bot/src/model"
)

func TestUserRepositoryFindWithPendingOrders(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &UserRepository{db: mockDB}

	createdAt := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	userCols := sqlmock.NewRows([]string{
		"id", "tg_id", "username", "wallet_address", "wallet_seed",
		"referral_code", "referral_earns", "parent_tg_id", "is_admin",
		"created_at", "updated_at",
	}).
		AddRow(uint(1), int64(42), "alice", "rAlice", "cipher-a", "CODE-A", decimal.Zero, int64(0), false, createdAt, createdAt).
		AddRow(uint(2), int64(43), "bob", "rBob", "cipher-b", "CODE-B", decimal.Zero, int64(42), false, createdAt, createdAt)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id IN (SELECT "user_id" FROM "orders")`)).
		WillReturnRows(userCols)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE "orders"."user_id" IN ($1,$2) ORDER BY created_at ASC, id ASC`)).
		WithArgs(uint(1), uint(2)).
		WillReturnRows(orderRows(
			model.Order{ID: "ord-1", UserID: 1, Side: model.OrderSideBuy, TokenAddress: "SOLO.rIssuer", CreatedAt: createdAt},
			model.Order{ID: "ord-2", UserID: 1, Side: model.OrderSideBuy, TokenAddress: "CORE.rIssuer", CreatedAt: createdAt.Add(time.Hour)},
			model.Order{ID: "ord-3", UserID: 2, Side: model.OrderSideSell, TokenAddress: "SOLO.rIssuer", CreatedAt: createdAt},
		))

	users, err := repo.FindWithPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading users: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if len(users[0].Orders) != 2 || users[0].Orders[0].ID != "ord-1" || users[0].Orders[1].ID != "ord-2" {
		t.Fatalf("unexpected orders preloaded for first user: %+v", users[0].Orders)
	}
	if len(users[1].Orders) != 1 || users[1].Orders[0].ID != "ord-3" {
		t.Fatalf("unexpected orders preloaded for second user: %+v", users[1].Orders)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestUserRepositoryGetByTgID(t *testing.T) {
	t.Run("returns the matching user", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &UserRepository{db: mockDB}

		rows := sqlmock.NewRows([]string{"id", "tg_id", "username", "wallet_address"}).
			AddRow(uint(1), int64(42), "alice", "rAlice")

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE tg_id = $1 ORDER BY "users"."id" LIMIT $2`)).
			WithArgs(int64(42), 1).
			WillReturnRows(rows)

		u, err := repo.GetByTgID(context.Background(), 42)
		if err != nil {
			t.Fatalf("unexpected error fetching user: %v", err)
		}
		if u.Username != "alice" || u.Wallet.Address != "rAlice" {
			t.Fatalf("unexpected user returned: %+v", u)
		}
	})

	t.Run("propagates record not found", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &UserRepository{db: mockDB}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE tg_id = $1 ORDER BY "users"."id" LIMIT $2`)).
			WithArgs(int64(99), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByTgID(context.Background(), 99)
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("expected gorm.ErrRecordNotFound, got %v", err)
		}
	})
}

func TestUserRepositoryCreditReferralEarnings(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &UserRepository{db: mockDB}

	fee := decimal.RequireFromString("0.003")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "referral_earns"=referral_earns + $1,"updated_at"=$2 WHERE id = $3`)).
		WithArgs(fee, sqlmock.AnyArg(), uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.CreditReferralEarnings(context.Background(), 1, fee); err != nil {
		t.Fatalf("unexpected error crediting earnings: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}
