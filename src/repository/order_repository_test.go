package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/1001pro/xrp-trading-bot/src/model"
)

func TestOrderRepositoryFindByUser(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &OrderRepository{db: mockDB}

	createdAt := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := orderRows(
		model.Order{ID: "ord-1", UserID: 7, Side: model.OrderSideBuy, TokenAddress: "SOLO.rIssuer", CreatedAt: createdAt},
		model.Order{ID: "ord-2", UserID: 7, Side: model.OrderSideSell, TokenAddress: "CORE.rIssuer", CreatedAt: createdAt.Add(time.Hour)},
	)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE user_id = $1 ORDER BY created_at ASC, id ASC`)).
		WithArgs(uint(7)).
		WillReturnRows(rows)

	results, err := repo.FindByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error listing orders: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(results))
	}
	if results[0].ID != "ord-1" || results[1].ID != "ord-2" {
		t.Fatalf("orders not returned in creation order: %+v", results)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryDeleteByIDForUser(t *testing.T) {
	t.Run("deletes the matching order", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &OrderRepository{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "orders" WHERE user_id = $1 AND id = $2`)).
			WithArgs(uint(7), "ord-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := repo.DeleteByIDForUser(context.Background(), 7, "ord-1"); err != nil {
			t.Fatalf("unexpected error deleting order: %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
	})

	t.Run("reports unknown ids", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &OrderRepository{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "orders" WHERE user_id = $1 AND id = $2`)).
			WithArgs(uint(7), "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.DeleteByIDForUser(context.Background(), 7, "missing")
		if !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestOrderRepositoryRemoveByIDs(t *testing.T) {
	t.Run("deletes only the named orders", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &OrderRepository{db: mockDB}

		// Orders outside the id set, including ones placed while a scan
		// cycle was running, are left alone.
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "orders" WHERE user_id = $1 AND id IN ($2,$3)`)).
			WithArgs(uint(7), "gone-1", "gone-2").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		if err := repo.RemoveByIDs(context.Background(), 7, []string{"gone-1", "gone-2"}); err != nil {
			t.Fatalf("unexpected error removing orders: %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
	})

	t.Run("no ids means no write", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &OrderRepository{db: mockDB}

		if err := repo.RemoveByIDs(context.Background(), 7, nil); err != nil {
			t.Fatalf("unexpected error on empty removal: %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
	})
}

func TestOrderRepositoryDistinctTokenAddresses(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &OrderRepository{db: mockDB}

	rows := sqlmock.NewRows([]string{"token_address"}).
		AddRow("CORE.rIssuer").
		AddRow("SOLO.rIssuer")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "token_address" FROM "orders" ORDER BY token_address ASC`)).
		WillReturnRows(rows)

	addresses, err := repo.DistinctTokenAddresses(context.Background())
	if err != nil {
		t.Fatalf("unexpected error listing token addresses: %v", err)
	}

	if len(addresses) != 2 || addresses[0] != "CORE.rIssuer" || addresses[1] != "SOLO.rIssuer" {
		t.Fatalf("unexpected token addresses: %v", addresses)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func orderRows(returned ...model.Order) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "side", "token_address", "token_name",
		"target_price", "initial_price", "amount",
		"expires_at", "created_at", "updated_at",
	})
	for _, o := range returned {
		rows.AddRow(
			o.ID, o.UserID, o.Side, o.TokenAddress, o.TokenName,
			o.TargetPrice, o.InitialPrice, o.Amount,
			o.ExpiresAt, o.CreatedAt, o.UpdatedAt,
		)
	}
	return rows
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}
