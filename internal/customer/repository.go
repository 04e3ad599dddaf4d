package customer

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Customer, error)
	GetByEmail(ctx context.Context, email string) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
}

type InMemoryRepository struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]Customer
}

func NewInMemoryRepository(seed []Customer) *InMemoryRepository {
	repo := &InMemoryRepository{customers: make(map[uuid.UUID]Customer, len(seed))}
	for _, c := range seed {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		repo.customers[c.ID] = c
	}
	return repo
}

func (r *InMemoryRepository) GetByID(_ context.Context, id uuid.UUID) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, apperror.NotFound("customer", id.String())
	}
	return c, nil
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return Customer{}, apperror.NotFound("customer", email)
}

func (r *InMemoryRepository) Create(_ context.Context, c Customer) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			return Customer{}, ErrEmailExists
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return c, nil
}
