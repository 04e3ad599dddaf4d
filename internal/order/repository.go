package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

type Repository interface {
	// Create fails with DuplicateOrderNumber when the order number is taken.
	Create(ctx context.Context, o Order) (Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (Order, error)
	// FindByIDForUpdate also locks the order until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (Order, error)
	// List returns one page of matching orders and the total match count.
	List(ctx context.Context, q Query) ([]Order, int, error)
	// UpdateStatus sets the status and appends its history entry in one write.
	UpdateStatus(ctx context.Context, id uuid.UUID, ch StatusChange) (Order, error)
	SetTracking(ctx context.Context, id uuid.UUID, tracking string, at time.Time) (Order, error)
	Summary(ctx context.Context, todayStart, monthStart time.Time) (Summary, error)
}

func notFound(id uuid.UUID) error {
	return apperror.NotFound("order", id.String())
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*Order
	byNumber map[string]uuid.UUID
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		orders:   make(map[uuid.UUID]*Order),
		byNumber: make(map[string]uuid.UUID),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byNumber[o.OrderNumber]; taken {
		return Order{}, apperror.DuplicateOrderNumber(o.OrderNumber, nil)
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	stored := o.clone()
	r.orders[o.ID] = &stored
	r.byNumber[o.OrderNumber] = o.ID

	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.orders, o.ID)
		delete(r.byNumber, o.OrderNumber)
	})
	return o, nil
}

func (r *InMemoryRepository) FindByID(_ context.Context, id uuid.UUID) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, notFound(id)
	}
	return o.clone(), nil
}

// FindByIDForUpdate needs no lock of its own; txn.MemoryManager serialises units of work.
func (r *InMemoryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return r.FindByID(ctx, id)
}

func (r *InMemoryRepository) List(_ context.Context, q Query) ([]Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Order, 0, len(r.orders))
	for _, o := range r.orders {
		if q.Status != "" && o.OrderStatus != q.Status {
			continue
		}
		if q.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *q.CustomerID) {
			continue
		}
		matched = append(matched, o)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if q.Desc {
			a, b = b, a
		}
		switch q.SortBy {
		case SortTotalAmount:
			return a.TotalAmount.LessThan(b.TotalAmount)
		case SortOrderNumber:
			return a.OrderNumber < b.OrderNumber
		case SortOrderStatus:
			return a.OrderStatus < b.OrderStatus
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})

	total := len(matched)
	start := q.offset()
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	out := make([]Order, 0, end-start)
	for _, o := range matched[start:end] {
		out = append(out, o.clone())
	}
	return out, total, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, ch StatusChange) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, notFound(id)
	}
	prev := o.clone()

	if o.OrderStatus != ch.Status {
		o.OrderStatus = ch.Status
		o.StatusHistory = append(o.StatusHistory, ch.Entry)
	}
	if ch.AdminNotes != nil {
		o.AdminNotes = *ch.AdminNotes
	}
	o.UpdatedBy = ch.UpdatedBy
	o.UpdatedAt = ch.At

	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.orders[id] = &prev
	})
	return o.clone(), nil
}

func (r *InMemoryRepository) SetTracking(_ context.Context, id uuid.UUID, tracking string, at time.Time) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, notFound(id)
	}
	o.TrackingNumber = tracking
	o.UpdatedAt = at
	return o.clone(), nil
}

func (r *InMemoryRepository) Summary(_ context.Context, todayStart, monthStart time.Time) (Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{StatusCounts: map[Status]int{}, TotalRevenue: decimal.Zero, MonthlyRevenue: decimal.Zero}
	for _, o := range r.orders {
		s.TotalOrders++
		s.StatusCounts[o.OrderStatus]++
		if !o.CreatedAt.Before(todayStart) {
			s.TodayOrders++
		}
		if o.OrderStatus == StatusCancelled {
			continue
		}
		s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
		if !o.CreatedAt.Before(monthStart) {
			s.MonthlyRevenue = s.MonthlyRevenue.Add(o.TotalAmount)
		}
	}
	return s, nil
}
