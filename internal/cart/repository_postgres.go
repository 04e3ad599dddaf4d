package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/txn"
)

type PostgresRepository struct {
	db *sql.DB
	tx *txn.SQLManager
}

const cartColumns = `id, customer_id, session_id, items, total_items, total_amount, created_at, updated_at`

const (
	selectCartByCustomerQuery = `SELECT ` + cartColumns + ` FROM carts WHERE customer_id = $1`
	selectCartBySessionQuery  = `SELECT ` + cartColumns + ` FROM carts WHERE session_id = $1`
	insertCartQuery           = `
		INSERT INTO carts (` + cartColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`
	updateCartQuery = `
		UPDATE carts
		SET items = $2,
			total_items = $3,
			total_amount = $4,
			updated_at = $5
		WHERE id = $1
	`
	deleteCartByCustomerQuery = `DELETE FROM carts WHERE customer_id = $1`
	deleteCartBySessionQuery  = `DELETE FROM carts WHERE session_id = $1`

	deleteUnchangedByCustomerQuery = `DELETE FROM carts WHERE customer_id = $1 AND updated_at = $2`
	deleteUnchangedBySessionQuery  = `DELETE FROM carts WHERE session_id = $1 AND updated_at = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, tx: txn.NewSQLManager(db)}
}

func selectQuery(key Key, forUpdate bool) string {
	q := selectCartBySessionQuery
	if key.Kind == KeyCustomer {
		q = selectCartByCustomerQuery
	}
	if forUpdate {
		q += " FOR UPDATE"
	}
	return q
}

func scanCart(row interface{ Scan(...any) error }) (*Cart, error) {
	var (
		c          Cart
		customerID uuid.NullUUID
		sessionID  sql.NullString
		items      []byte
	)
	if err := row.Scan(&c.ID, &customerID, &sessionID, &items, &c.TotalItems, &c.TotalAmount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if customerID.Valid {
		id := customerID.UUID
		c.CustomerID = &id
	}
	c.SessionID = sessionID.String
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if c.Items == nil {
		c.Items = []Line{}
	}
	return &c, nil
}

func (r *PostgresRepository) Get(ctx context.Context, key Key) (*Cart, error) {
	c, err := scanCart(txn.Executor(ctx, r.db).QueryRowContext(ctx, selectQuery(key, false), key.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("get cart %s: %w", key, err)
	}
	return c, nil
}

func (r *PostgresRepository) Mutate(ctx context.Context, key Key, create bool, fn func(*Cart) error) (*Cart, error) {
	var out *Cart
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		exec := txn.Executor(ctx, r.db)

		c, err := scanCart(exec.QueryRowContext(ctx, selectQuery(key, true), key.ID))
		if errors.Is(err, sql.ErrNoRows) {
			if !create {
				return notFound(key)
			}
			// a concurrent first add may win the insert; the re-select picks its row
			if err := r.insert(ctx, exec, newCart(key, now())); err != nil {
				return err
			}
			c, err = scanCart(exec.QueryRowContext(ctx, selectQuery(key, true), key.ID))
		}
		if err != nil {
			return fmt.Errorf("lock cart %s: %w", key, err)
		}

		if err := fn(c); err != nil {
			return err
		}
		c.recalculate(now())

		items, err := json.Marshal(c.Items)
		if err != nil {
			return err
		}
		if _, err := exec.ExecContext(ctx, updateCartQuery, c.ID, items, c.TotalItems, c.TotalAmount, c.UpdatedAt); err != nil {
			return fmt.Errorf("save cart %s: %w", key, err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) insert(ctx context.Context, exec txn.DBTX, c *Cart) error {
	var (
		customerID uuid.NullUUID
		sessionID  sql.NullString
	)
	if c.CustomerID != nil {
		customerID = uuid.NullUUID{UUID: *c.CustomerID, Valid: true}
	} else {
		sessionID = sql.NullString{String: c.SessionID, Valid: true}
	}
	_, err := exec.ExecContext(ctx, insertCartQuery, c.ID, customerID, sessionID, []byte(`[]`), 0, c.TotalAmount, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key Key) error {
	q := deleteCartBySessionQuery
	if key.Kind == KeyCustomer {
		q = deleteCartByCustomerQuery
	}
	if _, err := txn.Executor(ctx, r.db).ExecContext(ctx, q, key.ID); err != nil {
		return fmt.Errorf("delete cart %s: %w", key, err)
	}
	return nil
}

func (r *PostgresRepository) DeleteIfUnchanged(ctx context.Context, key Key, updatedAt time.Time) error {
	q := deleteUnchangedBySessionQuery
	if key.Kind == KeyCustomer {
		q = deleteUnchangedByCustomerQuery
	}
	res, err := txn.Executor(ctx, r.db).ExecContext(ctx, q, key.ID, updatedAt)
	if err != nil {
		return fmt.Errorf("delete cart %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChanged
	}
	return nil
}
