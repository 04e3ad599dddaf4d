package banner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/txn"
)

type PostgresRepository struct {
	db *sql.DB
}

const bannerColumns = `id, title, description, image_url, link_url, is_active, display_order, start_date, end_date, created_by, created_at, updated_at`

const (
	listBannersQuery = `
		SELECT ` + bannerColumns + `
		FROM banners
		ORDER BY display_order, created_at DESC
	`
	listLiveBannersQuery = `
		SELECT ` + bannerColumns + `
		FROM banners
		WHERE is_active
		  AND start_date <= $1
		  AND (end_date IS NULL OR end_date >= $1)
		ORDER BY display_order, created_at DESC
	`
	getBannerByIDQuery = `
		SELECT ` + bannerColumns + `
		FROM banners
		WHERE id = $1
	`
	insertBannerQuery = `
		INSERT INTO banners (` + bannerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	updateBannerQuery = `
		UPDATE banners
		SET title = $2,
			description = $3,
			image_url = $4,
			link_url = $5,
			is_active = $6,
			display_order = $7,
			start_date = $8,
			end_date = $9,
			updated_at = $10
		WHERE id = $1
		RETURNING created_by, created_at
	`
	setDisplayOrderQuery = `UPDATE banners SET display_order = $2, updated_at = $3 WHERE id = $1`
	deleteBannerQuery    = `DELETE FROM banners WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBanner(row rowScanner) (Banner, error) {
	var (
		b         Banner
		end       sql.NullTime
		createdBy uuid.NullUUID
	)
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.ImageURL, &b.LinkURL, &b.IsActive,
		&b.DisplayOrder, &b.StartDate, &end, &createdBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Banner{}, err
	}
	if end.Valid {
		b.EndDate = &end.Time
	}
	if createdBy.Valid {
		b.CreatedBy = &createdBy.UUID
	}
	return b, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...any) ([]Banner, error) {
	rows, err := txn.Executor(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()

	out := make([]Banner, 0)
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context) ([]Banner, error) {
	return r.query(ctx, listBannersQuery)
}

func (r *PostgresRepository) ListLive(ctx context.Context, now time.Time) ([]Banner, error) {
	return r.query(ctx, listLiveBannersQuery, now)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Banner, error) {
	b, err := scanBanner(txn.Executor(ctx, r.db).QueryRowContext(ctx, getBannerByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Banner{}, notFound(id)
	}
	if err != nil {
		return Banner{}, fmt.Errorf("get banner %s: %w", id, err)
	}
	return b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, b Banner) (Banner, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := txn.Executor(ctx, r.db).ExecContext(ctx, insertBannerQuery,
		b.ID, b.Title, b.Description, b.ImageURL, b.LinkURL, b.IsActive, b.DisplayOrder,
		b.StartDate, nullTime(b.EndDate), nullID(b.CreatedBy), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return Banner{}, fmt.Errorf("insert banner: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Update(ctx context.Context, b Banner) (Banner, error) {
	var createdBy uuid.NullUUID
	err := txn.Executor(ctx, r.db).QueryRowContext(ctx, updateBannerQuery,
		b.ID, b.Title, b.Description, b.ImageURL, b.LinkURL, b.IsActive, b.DisplayOrder,
		b.StartDate, nullTime(b.EndDate), b.UpdatedAt).Scan(&createdBy, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Banner{}, notFound(b.ID)
	}
	if err != nil {
		return Banner{}, fmt.Errorf("update banner %s: %w", b.ID, err)
	}
	b.CreatedBy = nil
	if createdBy.Valid {
		b.CreatedBy = &createdBy.UUID
	}
	return b, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := txn.Executor(ctx, r.db).ExecContext(ctx, deleteBannerQuery, id)
	if err != nil {
		return fmt.Errorf("delete banner %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

func (r *PostgresRepository) SetDisplayOrder(ctx context.Context, id uuid.UUID, order int, at time.Time) error {
	res, err := txn.Executor(ctx, r.db).ExecContext(ctx, setDisplayOrderQuery, id, order, at)
	if err != nil {
		return fmt.Errorf("reorder banner %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}
