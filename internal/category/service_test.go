package category

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/catalog"
)

type fixture struct {
	svc                 *Service
	fruit, dairy, stale Category
	apple, milk, cheese catalog.Item
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		fruit: Category{ID: uuid.New(), Name: "Fruit", Slug: "fruit", IsActive: true, DisplayOrder: 2},
		dairy: Category{ID: uuid.New(), Name: "Dairy", Slug: "dairy", IsActive: true, DisplayOrder: 1},
		stale: Category{ID: uuid.New(), Name: "Seasonal", Slug: "seasonal", IsActive: false},
	}
	f.apple = catalog.Item{ID: uuid.New(), Name: "Apple", StockQuantity: 10, CategoryID: &f.fruit.ID}
	f.milk = catalog.Item{ID: uuid.New(), Name: "Milk", StockQuantity: 0, CategoryID: &f.dairy.ID}
	f.cheese = catalog.Item{ID: uuid.New(), Name: "Cheese", StockQuantity: 4, CategoryID: &f.dairy.ID}
	pumpkin := catalog.Item{ID: uuid.New(), Name: "Pumpkin", StockQuantity: 3, CategoryID: &f.stale.ID}

	items := catalog.NewInMemoryRepository([]catalog.Item{f.apple, f.milk, f.cheese, pumpkin})
	f.svc = NewService(NewInMemoryRepository([]Category{f.fruit, f.dairy, f.stale}), items)
	return f
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fresh-fruit-veg", Slugify("  Fresh Fruit & Veg "))
	assert.Equal(t, "dairy-2", Slugify("Dairy--2"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestList_OrdersByDisplayOrder(t *testing.T) {
	f := newFixture(t)

	active, err := f.svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Dairy", active[0].Name)
	assert.Equal(t, "Fruit", active[1].Name)

	all, err := f.svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCreate_DerivesSlugAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, Input{Name: "Bakery Goods", Description: "bread"})
	require.NoError(t, err)
	assert.Equal(t, "bakery-goods", c.Slug)
	assert.True(t, c.IsActive)

	_, err = f.svc.Create(ctx, Input{Name: "Other", Slug: "Bakery Goods", Description: "x"})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	_, err = f.svc.Create(ctx, Input{Name: "???", Description: "x"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// keeping its own slug is not a conflict
	_, err = f.svc.Update(ctx, c.ID, Input{Name: "Bakery Goods", Description: "fresh bread"})
	require.NoError(t, err)
}

func TestItems_ActiveCategoryOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, items, err := f.svc.Items(ctx, f.dairy.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "dairy", c.Slug)
	require.Len(t, items, 2)
	assert.Equal(t, "Cheese", items[0].Name)

	_, items, err = f.svc.Items(ctx, f.dairy.ID, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, f.cheese.ID, items[0].ID)

	_, _, err = f.svc.Items(ctx, f.stale.ID, false)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, _, err = f.svc.Items(ctx, uuid.New(), false)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestItemsForCategories_DedupesAndSkips(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.ItemsForCategories(context.Background(),
		[]uuid.UUID{f.fruit.ID, f.stale.ID, uuid.New(), f.dairy.ID, f.fruit.ID})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, f.apple.ID, got[0].ID)
	assert.Equal(t, "fruit", got[0].Category.Slug)
	assert.Equal(t, "dairy", got[1].Category.Slug)
	assert.Equal(t, "dairy", got[2].Category.Slug)
}

func TestSetActive_HidesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.SetActive(ctx, f.fruit.ID, false)
	require.NoError(t, err)
	assert.False(t, c.IsActive)

	_, _, err = f.svc.Items(ctx, f.fruit.ID, false)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCatalogRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)
	items := catalog.NewService(catalog.NewInMemoryRepository(nil), catalog.WithCategoryChecker(f.svc))
	ctx := context.Background()

	it, err := items.Create(ctx, catalog.Input{Name: "Yogurt", StockQuantity: 2, CategoryID: &f.dairy.ID})
	require.NoError(t, err)
	assert.Equal(t, f.dairy.ID, *it.CategoryID)

	missing := uuid.New()
	_, err = items.Create(ctx, catalog.Input{Name: "Kefir", StockQuantity: 2, CategoryID: &missing})
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "unknown category", appErr.Fields["categoryId"])
}
