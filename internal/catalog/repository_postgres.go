package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/database"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

type PostgresRepository struct {
	db *sql.DB
}

const itemColumns = `id, name, description, images, regular_price, sale_price, stock_status, stock_quantity, weight, length, width, height, created_at, updated_at, category_id`

const (
	listItemsQuery = `
		SELECT ` + itemColumns + `
		FROM items
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND (NOT $2 OR stock_status = 'in_stock')
		  AND ($3::uuid IS NULL OR category_id = $3)
		ORDER BY name, id
	`
	getItemByIDQuery = `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = $1
	`
	getItemsByIDsQuery = `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = ANY($1::uuid[])
	`
	insertItemQuery = `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`
	updateItemQuery = `
		UPDATE items
		SET name = $2,
			description = $3,
			images = $4,
			regular_price = $5,
			sale_price = $6,
			stock_status = $7,
			stock_quantity = $8,
			weight = $9,
			length = $10,
			width = $11,
			height = $12,
			updated_at = $13,
			category_id = $14
		WHERE id = $1
		RETURNING created_at
	`
	deleteItemQuery = `DELETE FROM items WHERE id = $1`

	// the WHERE guard makes check-and-decrement one atomic statement
	decrementStockQuery = `
		UPDATE items
		SET stock_quantity = stock_quantity - $2,
			stock_status = CASE WHEN stock_quantity - $2 > 0 THEN 'in_stock' ELSE 'out_of_stock' END,
			updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
	`
	incrementStockQuery = `
		UPDATE items
		SET stock_quantity = stock_quantity + $2,
			stock_status = CASE WHEN stock_quantity + $2 > 0 THEN 'in_stock' ELSE 'out_of_stock' END,
			updated_at = now()
		WHERE id = $1
	`
	itemNameQuery = `SELECT name FROM items WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var (
		it       Item
		images   []byte
		status   string
		category uuid.NullUUID
	)
	err := row.Scan(&it.ID, &it.Name, &it.Description, &images, &it.RegularPrice, &it.SalePrice,
		&status, &it.StockQuantity, &it.Weight, &it.Dimensions.Length, &it.Dimensions.Width,
		&it.Dimensions.Height, &it.CreatedAt, &it.UpdatedAt, &category)
	if err != nil {
		return Item{}, err
	}
	it.StockStatus = StockStatus(status)
	if category.Valid {
		it.CategoryID = &category.UUID
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &it.Images); err != nil {
			return Item{}, fmt.Errorf("decode images of item %s: %w", it.ID, err)
		}
	}
	if it.Images == nil {
		it.Images = []Image{}
	}
	return it, nil
}

func nullCategory(id *uuid.UUID) uuid.NullUUID {
	return Filter{CategoryID: id}.category()
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Item, error) {
	rows, err := txn.Executor(ctx, r.db).QueryContext(ctx, listItemsQuery, f.Search, f.InStockOnly, f.category())
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Item, error) {
	it, err := scanItem(txn.Executor(ctx, r.db).QueryRowContext(ctx, getItemByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, notFound(id)
	}
	if err != nil {
		return Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return it, nil
}

func (r *PostgresRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Item, error) {
	out := make(map[uuid.UUID]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := txn.Executor(ctx, r.db).QueryContext(ctx, getItemsByIDsQuery, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out[it.ID] = it
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, it Item) (Item, error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	images, err := json.Marshal(it.Images)
	if err != nil {
		return Item{}, err
	}
	_, err = txn.Executor(ctx, r.db).ExecContext(ctx, insertItemQuery,
		it.ID, it.Name, it.Description, images, it.RegularPrice, it.SalePrice, string(it.StockStatus),
		it.StockQuantity, it.Weight, it.Dimensions.Length, it.Dimensions.Width, it.Dimensions.Height,
		it.CreatedAt, it.UpdatedAt, nullCategory(it.CategoryID))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Item{}, apperror.Validation("", map[string]string{"categoryId": "unknown category"})
		}
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

func (r *PostgresRepository) Update(ctx context.Context, it Item) (Item, error) {
	images, err := json.Marshal(it.Images)
	if err != nil {
		return Item{}, err
	}
	var createdAt time.Time
	err = txn.Executor(ctx, r.db).QueryRowContext(ctx, updateItemQuery,
		it.ID, it.Name, it.Description, images, it.RegularPrice, it.SalePrice, string(it.StockStatus),
		it.StockQuantity, it.Weight, it.Dimensions.Length, it.Dimensions.Width, it.Dimensions.Height,
		it.UpdatedAt, nullCategory(it.CategoryID)).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, notFound(it.ID)
	}
	if database.IsForeignKeyViolation(err) {
		return Item{}, apperror.Validation("", map[string]string{"categoryId": "unknown category"})
	}
	if err != nil {
		return Item{}, fmt.Errorf("update item %s: %w", it.ID, err)
	}
	it.CreatedAt = createdAt
	return it, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := txn.Executor(ctx, r.db).ExecContext(ctx, deleteItemQuery, id)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

func (r *PostgresRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	exec := txn.Executor(ctx, r.db)
	res, err := exec.ExecContext(ctx, decrementStockQuery, id, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// nothing updated: either the item is gone or stock ran short
	var name string
	err = exec.QueryRowContext(ctx, itemNameQuery, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(id)
	}
	if err != nil {
		return fmt.Errorf("lookup item %s: %w", id, err)
	}
	return apperror.InsufficientStock(id.String(), name)
}

func (r *PostgresRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	res, err := txn.Executor(ctx, r.db).ExecContext(ctx, incrementStockQuery, id, quantity)
	if err != nil {
		return fmt.Errorf("increment stock of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}
