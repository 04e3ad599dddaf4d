package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/database"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

const orderNumberConstraint = "orders_order_number_key"

type PostgresRepository struct {
	db *sql.DB
}

const orderColumns = `id, order_number, customer_id, customer_info, shipping_address, billing_address, items,
	subtotal, shipping_cost, tax, total_amount, payment_method, payment_status, order_status,
	tracking_number, notes, admin_notes, updated_by, status_history, created_at, updated_at`

const (
	insertOrderQuery = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`
	selectOrderQuery = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	countOrdersQuery = `
		SELECT count(*)
		FROM orders
		WHERE ($1 = '' OR order_status = $1)
		  AND ($2::uuid IS NULL OR customer_id = $2)
	`
	listOrdersQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR order_status = $1)
		  AND ($2::uuid IS NULL OR customer_id = $2)
	`

	// SET expressions see the pre-update row, so the history grows only on a real change
	updateStatusQuery = `
		UPDATE orders
		SET order_status = $2,
			status_history = CASE WHEN order_status <> $2 THEN status_history || $3::jsonb ELSE status_history END,
			admin_notes = COALESCE($4, admin_notes),
			updated_by = $5,
			updated_at = $6
		WHERE id = $1
		RETURNING ` + orderColumns

	setTrackingQuery = `
		UPDATE orders
		SET tracking_number = $2,
			updated_at = $3
		WHERE id = $1
		RETURNING ` + orderColumns

	statusCountsQuery = `SELECT order_status, count(*) FROM orders GROUP BY order_status`
	orderCountsQuery  = `SELECT count(*), count(*) FILTER (WHERE created_at >= $1) FROM orders`
	revenueQuery      = `
		SELECT COALESCE(sum(total_amount), 0),
			COALESCE(sum(total_amount) FILTER (WHERE created_at >= $1), 0)
		FROM orders
		WHERE order_status <> 'cancelled'
	`
)

var sortColumns = map[SortKey]string{
	SortCreatedAt:   "created_at",
	SortTotalAmount: "total_amount",
	SortOrderNumber: "order_number",
	SortOrderStatus: "order_status",
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var (
		o                                   Order
		customerID                          uuid.NullUUID
		info, shipping, billing, items, hst []byte
		payMethod, payStatus, status        string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &customerID, &info, &shipping, &billing, &items,
		&o.Subtotal, &o.ShippingCost, &o.Tax, &o.TotalAmount, &payMethod, &payStatus, &status,
		&o.TrackingNumber, &o.Notes, &o.AdminNotes, &o.UpdatedBy, &hst, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if customerID.Valid {
		id := customerID.UUID
		o.CustomerID = &id
	}
	o.PaymentMethod = PaymentMethod(payMethod)
	o.PaymentStatus = PaymentStatus(payStatus)
	o.OrderStatus = Status(status)

	for _, f := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"customer_info", info, &o.CustomerInfo},
		{"shipping_address", shipping, &o.ShippingAddress},
		{"billing_address", billing, &o.BillingAddress},
		{"items", items, &o.Items},
		{"status_history", hst, &o.StatusHistory},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return Order{}, fmt.Errorf("decode %s of order %s: %w", f.name, o.ID, err)
		}
	}
	if o.Items == nil {
		o.Items = []Line{}
	}
	if o.StatusHistory == nil {
		o.StatusHistory = []HistoryEntry{}
	}
	return o, nil
}

func marshalAll(vs ...any) ([][]byte, error) {
	out := make([][]byte, len(vs))
	for i, v := range vs {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	docs, err := marshalAll(o.CustomerInfo, o.ShippingAddress, o.BillingAddress, o.Items, o.StatusHistory)
	if err != nil {
		return Order{}, fmt.Errorf("encode order: %w", err)
	}
	var customerID uuid.NullUUID
	if o.CustomerID != nil {
		customerID = uuid.NullUUID{UUID: *o.CustomerID, Valid: true}
	}

	_, err = txn.Executor(ctx, r.db).ExecContext(ctx, insertOrderQuery,
		o.ID, o.OrderNumber, customerID, docs[0], docs[1], docs[2], docs[3],
		o.Subtotal, o.ShippingCost, o.Tax, o.TotalAmount,
		string(o.PaymentMethod), string(o.PaymentStatus), string(o.OrderStatus),
		o.TrackingNumber, o.Notes, o.AdminNotes, o.UpdatedBy, docs[4], o.CreatedAt, o.UpdatedAt)
	if database.IsUniqueViolation(err, orderNumberConstraint) {
		return Order{}, apperror.DuplicateOrderNumber(o.OrderNumber, err)
	}
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) find(ctx context.Context, id uuid.UUID, query string) (Order, error) {
	o, err := scanOrder(txn.Executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, notFound(id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (Order, error) {
	return r.find(ctx, id, selectOrderQuery)
}

func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return r.find(ctx, id, selectOrderQuery+" FOR UPDATE")
}

func (r *PostgresRepository) List(ctx context.Context, q Query) ([]Order, int, error) {
	var customerID uuid.NullUUID
	if q.CustomerID != nil {
		customerID = uuid.NullUUID{UUID: *q.CustomerID, Valid: true}
	}
	exec := txn.Executor(ctx, r.db)

	var total int
	if err := exec.QueryRowContext(ctx, countOrdersQuery, string(q.Status), customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns[SortCreatedAt]
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	query := fmt.Sprintf("%s ORDER BY %s %s, id LIMIT $3 OFFSET $4", listOrdersQuery, col, dir)

	rows, err := exec.QueryContext(ctx, query, string(q.Status), customerID, q.Limit, q.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, ch StatusChange) (Order, error) {
	entry, err := json.Marshal([]HistoryEntry{ch.Entry})
	if err != nil {
		return Order{}, fmt.Errorf("encode status history: %w", err)
	}
	var notes sql.NullString
	if ch.AdminNotes != nil {
		notes = sql.NullString{String: *ch.AdminNotes, Valid: true}
	}

	o, err := scanOrder(txn.Executor(ctx, r.db).QueryRowContext(ctx, updateStatusQuery,
		id, string(ch.Status), entry, notes, ch.UpdatedBy, ch.At))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, notFound(id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("update status of order %s: %w", id, err)
	}
	return o, nil
}

func (r *PostgresRepository) SetTracking(ctx context.Context, id uuid.UUID, tracking string, at time.Time) (Order, error) {
	o, err := scanOrder(txn.Executor(ctx, r.db).QueryRowContext(ctx, setTrackingQuery, id, tracking, at))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, notFound(id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("set tracking of order %s: %w", id, err)
	}
	return o, nil
}

// Summary runs its three aggregate queries concurrently on the pool.
func (r *PostgresRepository) Summary(ctx context.Context, todayStart, monthStart time.Time) (Summary, error) {
	s := Summary{StatusCounts: map[Status]int{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx, statusCountsQuery)
		if err != nil {
			return fmt.Errorf("count orders by status: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				status string
				n      int
			)
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			s.StatusCounts[Status(status)] = n
		}
		return rows.Err()
	})
	g.Go(func() error {
		if err := r.db.QueryRowContext(gctx, orderCountsQuery, todayStart).Scan(&s.TotalOrders, &s.TodayOrders); err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var total, monthly decimal.Decimal
		if err := r.db.QueryRowContext(gctx, revenueQuery, monthStart).Scan(&total, &monthly); err != nil {
			return fmt.Errorf("sum revenue: %w", err)
		}
		s.TotalRevenue, s.MonthlyRevenue = total, monthly
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return s, nil
}
