package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/grocery-backend/internal/apperror"
)

var categoryCols = []string{"id", "name", "slug", "description", "image_url", "is_active", "display_order", "created_at", "updated_at"}

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresList(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(categoryCols).
		AddRow(uuid.NewString(), "Dairy", "dairy", "milk and cheese", "", true, 1, now, now).
		AddRow(uuid.NewString(), "Fruit", "fruit", "", "", true, 2, now, now)
	mock.ExpectQuery("FROM categories\\s+WHERE \\(NOT \\$1 OR is_active\\)").WithArgs(true).WillReturnRows(rows)

	got, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dairy", got[0].Slug)
	assert.Equal(t, 2, got[1].DisplayOrder)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	id := uuid.New()
	mock.ExpectQuery("FROM categories\\s+WHERE id = \\$1").WithArgs(id).WillReturnRows(sqlmock.NewRows(categoryCols))

	_, err := repo.GetByID(context.Background(), id)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestPostgresCreate_DuplicateSlug(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("INSERT INTO categories").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: slugConstraint})

	_, err := repo.Create(context.Background(), Category{Name: "Dairy", Slug: "dairy"})
	assert.True(t, errors.Is(err, ErrSlugTaken))
}

func TestPostgresUpdate(t *testing.T) {
	repo, mock := newMock(t)
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("UPDATE categories").
		WithArgs(id, "Dairy", "dairy", "", "", false, 3, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	c, err := repo.Update(context.Background(), Category{ID: id, Name: "Dairy", Slug: "dairy", DisplayOrder: 3, UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, created, c.CreatedAt)

	mock.ExpectQuery("UPDATE categories").WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	_, err = repo.Update(context.Background(), Category{ID: uuid.New(), Name: "Gone", Slug: "gone"})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestPostgresDelete_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	id := uuid.New()
	mock.ExpectExec("DELETE FROM categories").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, apperror.IsKind(repo.Delete(context.Background(), id), apperror.KindNotFound))
}
