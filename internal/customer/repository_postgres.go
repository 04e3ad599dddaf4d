package customer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/database"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const customerColumns = `id, email, password_hash, first_name, last_name, phone, gender, address, shipping_address, billing_address, role, created_at, updated_at`

const (
	getCustomerByIDQuery = `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE id = $1
	`
	getCustomerByEmailQuery = `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE lower(email) = lower($1)
	`
	insertCustomerQuery = `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCustomer(row rowScanner) (Customer, error) {
	var (
		c                 Customer
		shipping, billing []byte
	)
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.FirstName, &c.LastName, &c.Phone, &c.Gender,
		&c.Address, &shipping, &billing, &c.Role, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Customer{}, err
	}
	if len(shipping) > 0 && string(shipping) != "null" {
		c.ShippingAddress = new(Address)
		if err := json.Unmarshal(shipping, c.ShippingAddress); err != nil {
			return Customer{}, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	if len(billing) > 0 && string(billing) != "null" {
		c.BillingAddress = new(Address)
		if err := json.Unmarshal(billing, c.BillingAddress); err != nil {
			return Customer{}, fmt.Errorf("decode billing address: %w", err)
		}
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	c, err := scanCustomer(txn.Executor(ctx, r.db).QueryRowContext(ctx, getCustomerByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, apperror.NotFound("customer", id.String())
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer %s: %w", id, err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (Customer, error) {
	c, err := scanCustomer(txn.Executor(ctx, r.db).QueryRowContext(ctx, getCustomerByEmailQuery, email))
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, apperror.NotFound("customer", email)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

func nullableJSON(a *Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (r *PostgresRepository) Create(ctx context.Context, c Customer) (Customer, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	shipping, err := nullableJSON(c.ShippingAddress)
	if err != nil {
		return Customer{}, err
	}
	billing, err := nullableJSON(c.BillingAddress)
	if err != nil {
		return Customer{}, err
	}

	_, err = txn.Executor(ctx, r.db).ExecContext(ctx, insertCustomerQuery,
		c.ID, c.Email, c.PasswordHash, c.FirstName, c.LastName, c.Phone, c.Gender, c.Address,
		shipping, billing, c.Role, c.CreatedAt, c.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return Customer{}, ErrEmailExists
	}
	if err != nil {
		return Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}
