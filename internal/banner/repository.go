package banner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/txn"
)

type Repository interface {
	// List returns every banner by display order, newest first within an order.
	List(ctx context.Context) ([]Banner, error)
	// ListLive returns the banners live at now, in display order.
	ListLive(ctx context.Context, now time.Time) ([]Banner, error)
	GetByID(ctx context.Context, id uuid.UUID) (Banner, error)
	Create(ctx context.Context, b Banner) (Banner, error)
	Update(ctx context.Context, b Banner) (Banner, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetDisplayOrder(ctx context.Context, id uuid.UUID, order int, at time.Time) error
}

// InMemoryRepository keeps banners in a map. Display order changes made inside
// a txn.MemoryManager unit of work are undone on rollback.
type InMemoryRepository struct {
	mu      sync.RWMutex
	banners map[uuid.UUID]Banner
}

func NewInMemoryRepository(seed []Banner) *InMemoryRepository {
	r := &InMemoryRepository{banners: make(map[uuid.UUID]Banner, len(seed))}
	for _, b := range seed {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		r.banners[b.ID] = b
	}
	return r
}

func sortBanners(bs []Banner) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].DisplayOrder != bs[j].DisplayOrder {
			return bs[i].DisplayOrder < bs[j].DisplayOrder
		}
		return bs[i].CreatedAt.After(bs[j].CreatedAt)
	})
}

func (r *InMemoryRepository) collect(keep func(Banner) bool) []Banner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Banner, 0, len(r.banners))
	for _, b := range r.banners {
		if keep(b) {
			out = append(out, b)
		}
	}
	sortBanners(out)
	return out
}

func (r *InMemoryRepository) List(_ context.Context) ([]Banner, error) {
	return r.collect(func(Banner) bool { return true }), nil
}

func (r *InMemoryRepository) ListLive(_ context.Context, now time.Time) ([]Banner, error) {
	return r.collect(func(b Banner) bool { return b.LiveAt(now) }), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id uuid.UUID) (Banner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.banners[id]
	if !ok {
		return Banner{}, notFound(id)
	}
	return b, nil
}

func (r *InMemoryRepository) Create(_ context.Context, b Banner) (Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.banners[b.ID] = b
	return b, nil
}

func (r *InMemoryRepository) Update(_ context.Context, b Banner) (Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.banners[b.ID]
	if !ok {
		return Banner{}, notFound(b.ID)
	}
	b.CreatedAt = prev.CreatedAt
	b.CreatedBy = prev.CreatedBy
	r.banners[b.ID] = b
	return b, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.banners[id]; !ok {
		return notFound(id)
	}
	delete(r.banners, id)
	return nil
}

func (r *InMemoryRepository) SetDisplayOrder(ctx context.Context, id uuid.UUID, order int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.banners[id]
	if !ok {
		return notFound(id)
	}
	prev := b
	b.DisplayOrder = order
	b.UpdatedAt = at
	r.banners[id] = b

	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.banners[id]; ok {
			cur.DisplayOrder = prev.DisplayOrder
			cur.UpdatedAt = prev.UpdatedAt
			r.banners[id] = cur
		}
	})
	return nil
}
