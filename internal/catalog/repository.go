package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

type Repository interface {
	List(ctx context.Context, f Filter) ([]Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (Item, error)
	// GetMany returns the items that exist among ids; missing ids are absent from the map.
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Item, error)
	Create(ctx context.Context, it Item) (Item, error)
	Update(ctx context.Context, it Item) (Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DecrementStock subtracts quantity only if enough stock remains.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

func notFound(id uuid.UUID) error {
	return apperror.NotFound("item", id.String())
}

// InMemoryRepository keeps items in a map. Stock changes made inside a
// txn.MemoryManager unit of work are undone on rollback.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Item
}

func NewInMemoryRepository(seed []Item) *InMemoryRepository {
	r := &InMemoryRepository{items: make(map[uuid.UUID]Item, len(seed))}
	for _, it := range seed {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		if it.StockStatus == "" {
			it.StockStatus = statusFor(it.StockQuantity)
		}
		r.items[it.ID] = it
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		if search != "" && !strings.Contains(strings.ToLower(it.Name), search) {
			continue
		}
		if f.InStockOnly && it.StockStatus != InStock {
			continue
		}
		if f.CategoryID != nil && (it.CategoryID == nil || *it.CategoryID != *f.CategoryID) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id uuid.UUID) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return Item{}, notFound(id)
	}
	return it, nil
}

func (r *InMemoryRepository) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]Item, len(ids))
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, it Item) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	r.items[it.ID] = it
	return it, nil
}

func (r *InMemoryRepository) Update(_ context.Context, it Item) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.items[it.ID]
	if !ok {
		return Item{}, notFound(it.ID)
	}
	it.CreatedAt = prev.CreatedAt
	r.items[it.ID] = it
	return it, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return notFound(id)
	}
	delete(r.items, id)
	return nil
}

func (r *InMemoryRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.adjustStock(ctx, id, -quantity)
}

func (r *InMemoryRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.adjustStock(ctx, id, quantity)
}

func (r *InMemoryRepository) adjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return notFound(id)
	}
	if it.StockQuantity+delta < 0 {
		return apperror.InsufficientStock(id.String(), it.Name)
	}

	prev := it
	it.StockQuantity += delta
	it.StockStatus = statusFor(it.StockQuantity)
	it.UpdatedAt = time.Now().UTC()
	r.items[id] = it

	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		cur, ok := r.items[id]
		if !ok {
			return
		}
		cur.StockQuantity -= delta
		cur.StockStatus = prev.StockStatus
		r.items[id] = cur
	})
	return nil
}
