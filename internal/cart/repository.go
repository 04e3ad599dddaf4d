package cart

import (
	"context"
	"sync"
	"time"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

// ErrNotFound matches any missing-cart error via errors.Is.
var ErrNotFound = &apperror.Error{Kind: apperror.KindNotFound, Message: "cart not found"}

// ErrChanged is returned by DeleteIfUnchanged when the cart was written or
// removed after the caller read it.
var ErrChanged = apperror.Conflict("cart changed during checkout, review it and try again")

// Repository persists carts. Mutate is the only write path and always
// recomputes the derived totals and updatedAt before saving.
type Repository interface {
	Get(ctx context.Context, key Key) (*Cart, error)
	// Mutate loads the cart under key, applies fn and saves the result.
	// A missing cart is created when create is set, otherwise it is NotFound.
	Mutate(ctx context.Context, key Key, create bool, fn func(*Cart) error) (*Cart, error)
	// Delete removes the cart; a missing cart is not an error.
	Delete(ctx context.Context, key Key) error
	// DeleteIfUnchanged removes the cart only while its updatedAt still
	// equals updatedAt, and fails with ErrChanged otherwise.
	DeleteIfUnchanged(ctx context.Context, key Key, updatedAt time.Time) error
}

func notFound(key Key) error {
	return apperror.NotFound("cart", key.String())
}

func now() time.Time { return time.Now().UTC() }

type InMemoryRepository struct {
	mu    sync.Mutex
	carts map[Key]*Cart
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[Key]*Cart)}
}

func (r *InMemoryRepository) Get(_ context.Context, key Key) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[key]
	if !ok {
		return nil, notFound(key)
	}
	return c.clone(), nil
}

func (r *InMemoryRepository) Mutate(ctx context.Context, key Key, create bool, fn func(*Cart) error) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := now()
	prev, ok := r.carts[key]
	var c *Cart
	switch {
	case ok:
		c = prev.clone()
	case create:
		c = newCart(key, ts)
	default:
		return nil, notFound(key)
	}

	if err := fn(c); err != nil {
		return nil, err
	}
	c.recalculate(ts)
	r.carts[key] = c

	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if ok {
			r.carts[key] = prev
		} else {
			delete(r.carts, key)
		}
	})
	return c.clone(), nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, key Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.carts[key]
	if !ok {
		return nil
	}
	delete(r.carts, key)
	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.carts[key] = prev
	})
	return nil
}

func (r *InMemoryRepository) DeleteIfUnchanged(ctx context.Context, key Key, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.carts[key]
	if !ok || !prev.UpdatedAt.Equal(updatedAt) {
		return ErrChanged
	}
	delete(r.carts, key)
	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.carts[key] = prev
	})
	return nil
}
