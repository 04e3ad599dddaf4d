package category

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, c Category) (Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type InMemoryRepository struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]Category
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	r := &InMemoryRepository{categories: make(map[uuid.UUID]Category, len(seed))}
	for _, c := range seed {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.categories[c.ID] = c
	}
	return r
}

// sortCategories orders by display order, then name.
func sortCategories(cs []Category) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].DisplayOrder != cs[j].DisplayOrder {
			return cs[i].DisplayOrder < cs[j].DisplayOrder
		}
		return cs[i].Name < cs[j].Name
	})
}

func (r *InMemoryRepository) List(_ context.Context, activeOnly bool) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sortCategories(out)
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id uuid.UUID) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return Category{}, notFound(id)
	}
	return c, nil
}

// slugTaken must be called with the lock held.
func (r *InMemoryRepository) slugTaken(slug string, except uuid.UUID) bool {
	for _, c := range r.categories {
		if c.Slug == slug && c.ID != except {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) Create(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if r.slugTaken(c.Slug, c.ID) {
		return Category{}, ErrSlugTaken
	}
	r.categories[c.ID] = c
	return c, nil
}

func (r *InMemoryRepository) Update(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.categories[c.ID]
	if !ok {
		return Category{}, notFound(c.ID)
	}
	if r.slugTaken(c.Slug, c.ID) {
		return Category{}, ErrSlugTaken
	}
	c.CreatedAt = prev.CreatedAt
	r.categories[c.ID] = c
	return c, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return notFound(id)
	}
	delete(r.categories, id)
	return nil
}
