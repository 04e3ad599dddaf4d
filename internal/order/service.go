package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/events"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

const (
	defaultPage          = 1
	defaultLimit         = 20
	defaultCustomerLimit = 10
	maxLimit             = 100
)

// StockRestorer gives stock back when an order is cancelled.
type StockRestorer interface {
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type Service struct {
	repo   Repository
	stock  StockRestorer
	tx     txn.Manager
	events events.Publisher
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, stock StockRestorer, tx txn.Manager, pub events.Publisher, log zerolog.Logger) *Service {
	return &Service{repo: repo, stock: stock, tx: tx, events: pub, log: log, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.repo.FindByID(ctx, id)
}

// List pages through every order; zero values fall back to page 1, 20 per
// page, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]Order, int, Query, error) {
	q = normalize(q, defaultLimit)
	orders, total, err := s.repo.List(ctx, q)
	return orders, total, q, err
}

func (s *Service) ListByCustomer(ctx context.Context, customerID uuid.UUID, q Query) ([]Order, int, Query, error) {
	q.CustomerID = &customerID
	q = normalize(q, defaultCustomerLimit)
	orders, total, err := s.repo.List(ctx, q)
	return orders, total, q, err
}

func normalize(q Query, limit int) Query {
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit < 1 {
		q.Limit = limit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if !q.SortBy.valid() {
		q.SortBy = SortCreatedAt
		q.Desc = true
	}
	return q
}

// StatusUpdate is an admin's request to move an order along its lifecycle.
type StatusUpdate struct {
	Status     string
	AdminNotes *string
	Actor      string
}

// SetStatus applies u with the order row locked. Re-applying the current
// status only updates admin notes, so a repeated cancel restores stock once.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, u StatusUpdate) (Order, error) {
	next, err := ParseStatus(u.Status)
	if err != nil {
		return Order{}, err
	}
	actor := u.Actor
	if actor == "" {
		actor = "admin"
	}

	var (
		updated Order
		prev    Status
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		prev = cur.OrderStatus
		if cur.OrderStatus != next && !cur.OrderStatus.CanTransitionTo(next) {
			return apperror.InvalidStatus("cannot move order from " + string(cur.OrderStatus) + " to " + string(next))
		}

		at := s.now().UTC()
		entry := HistoryEntry{Status: next, Timestamp: at, UpdatedBy: actor}
		if u.AdminNotes != nil {
			entry.Note = *u.AdminNotes
		}
		updated, err = s.repo.UpdateStatus(ctx, id, StatusChange{
			Status:     next,
			Entry:      entry,
			AdminNotes: u.AdminNotes,
			UpdatedBy:  actor,
			At:         at,
		})
		if err != nil {
			return err
		}

		if next == StatusCancelled && prev != StatusCancelled {
			for _, line := range cur.Items {
				err := s.stock.IncrementStock(ctx, line.ItemID, line.Quantity)
				if apperror.IsKind(err, apperror.KindNotFound) {
					// Item left the catalog; nothing to give back.
					s.log.Warn().Str("order_number", cur.OrderNumber).Str("item_id", line.ItemID.String()).
						Int("quantity", line.Quantity).Msg("skipping restock of deleted item")
					continue
				}
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if prev != next {
		log := s.log.Info().Str("order_number", updated.OrderNumber).
			Str("from", string(prev)).Str("to", string(next)).Str("actor", actor)
		if next == StatusCancelled {
			log = log.Int("lines_restocked", len(updated.Items))
		}
		log.Msg("order status changed")

		events.PublishAsync(s.events, s.log, events.New(events.TypeOrderStatusChanged, updated.OrderNumber, map[string]any{
			"orderId":     updated.ID,
			"orderNumber": updated.OrderNumber,
			"from":        prev,
			"to":          next,
			"updatedBy":   actor,
		}))
	}
	return updated, nil
}

func (s *Service) SetTracking(ctx context.Context, id uuid.UUID, tracking string) (Order, error) {
	if tracking == "" {
		return Order{}, apperror.Validation("", map[string]string{"trackingNumber": "is required"})
	}
	return s.repo.SetTracking(ctx, id, tracking, s.now().UTC())
}

// Summary counts "today" from local midnight and "this month" from the first
// of the month, both in the server's time zone.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.repo.Summary(ctx, today, month)
}
