package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cartCols = []string{"id", "customer_id", "session_id", "items", "total_items", "total_amount", "created_at", "updated_at"}

func TestPostgresMutate_LocksUpdatesAndRecalculates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	cartID, customerID, itemID := uuid.New(), uuid.New(), uuid.New()
	key := CustomerKey(customerID)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM carts WHERE customer_id = \\$1 FOR UPDATE").WithArgs(key.ID).
		WillReturnRows(sqlmock.NewRows(cartCols).AddRow(cartID.String(), customerID.String(), nil,
			[]byte(`[{"itemId":"`+itemID.String()+`","name":"Rice","price":450,"imageUrl":"","quantity":1,"addedAt":"2024-01-01T00:00:00Z"}]`),
			1, "450", now, now))
	mock.ExpectExec("UPDATE carts").WithArgs(cartID, sqlmock.AnyArg(), 3, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := repo.Mutate(context.Background(), key, false, func(c *Cart) error {
		c.SetQuantity(itemID, 3)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, c.TotalItems)
	assert.True(t, c.TotalAmount.Equal(decimal.NewFromInt(1350)))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresMutate_CreatesMissingCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	key := SessionKey("guest-pg")
	cartID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM carts WHERE session_id = \\$1 FOR UPDATE").WithArgs("guest-pg").
		WillReturnRows(sqlmock.NewRows(cartCols))
	mock.ExpectExec("INSERT INTO carts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM carts WHERE session_id = \\$1 FOR UPDATE").WithArgs("guest-pg").
		WillReturnRows(sqlmock.NewRows(cartCols).AddRow(cartID.String(), nil, "guest-pg", []byte(`[]`), 0, "0", now, now))
	mock.ExpectExec("UPDATE carts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := repo.Mutate(context.Background(), key, true, func(c *Cart) error {
		c.Add(Line{ItemID: uuid.New(), Price: decimal.NewFromInt(20), Quantity: 2})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, cartID, c.ID)
	assert.Equal(t, "guest-pg", c.SessionID)
	assert.Equal(t, 2, c.TotalItems)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresMutate_MissingCartRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM carts").WillReturnRows(sqlmock.NewRows(cartCols))
	mock.ExpectRollback()

	_, err = repo.Mutate(context.Background(), SessionKey("nobody"), false, func(*Cart) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDeleteIfUnchanged(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	customerID := uuid.New()
	seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM carts WHERE customer_id = \\$1 AND updated_at = \\$2").
		WithArgs(customerID.String(), seen).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM carts WHERE session_id = \\$1 AND updated_at = \\$2").
		WithArgs("guest-9", seen).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteIfUnchanged(context.Background(), CustomerKey(customerID), seen))
	err = repo.DeleteIfUnchanged(context.Background(), SessionKey("guest-9"), seen)
	assert.True(t, errors.Is(err, ErrChanged))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
