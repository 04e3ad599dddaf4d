package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/database"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

type PostgresRepository struct {
	db *sql.DB
}

const slugConstraint = "categories_slug_key"

const categoryColumns = `id, name, slug, description, image_url, is_active, display_order, created_at, updated_at`

const (
	listCategoriesQuery = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE (NOT $1 OR is_active)
		ORDER BY display_order, name
	`
	getCategoryByIDQuery = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE id = $1
	`
	insertCategoryQuery = `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	updateCategoryQuery = `
		UPDATE categories
		SET name = $2,
			slug = $3,
			description = $4,
			image_url = $5,
			is_active = $6,
			display_order = $7,
			updated_at = $8
		WHERE id = $1
		RETURNING created_at
	`
	deleteCategoryQuery = `DELETE FROM categories WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive,
		&c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	rows, err := txn.Executor(ctx, r.db).QueryContext(ctx, listCategoriesQuery, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Category, error) {
	c, err := scanCategory(txn.Executor(ctx, r.db).QueryRowContext(ctx, getCategoryByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, notFound(id)
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := txn.Executor(ctx, r.db).ExecContext(ctx, insertCategoryQuery,
		c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.IsActive, c.DisplayOrder, c.CreatedAt, c.UpdatedAt)
	if database.IsUniqueViolation(err, slugConstraint) {
		return Category{}, ErrSlugTaken
	}
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c Category) (Category, error) {
	var createdAt time.Time
	err := txn.Executor(ctx, r.db).QueryRowContext(ctx, updateCategoryQuery,
		c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.IsActive, c.DisplayOrder, c.UpdatedAt).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, notFound(c.ID)
	}
	if database.IsUniqueViolation(err, slugConstraint) {
		return Category{}, ErrSlugTaken
	}
	if err != nil {
		return Category{}, fmt.Errorf("update category %s: %w", c.ID, err)
	}
	c.CreatedAt = createdAt
	return c, nil
}

// Delete leaves the category's items uncategorized through the foreign key's ON DELETE SET NULL.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := txn.Executor(ctx, r.db).ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}
