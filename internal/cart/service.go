package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/catalog"
	"github.com/wichananm65/grocery-backend/internal/pricing"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

// ItemReader is the slice of the catalog the cart needs.
type ItemReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (catalog.Item, error)
}

// Service orchestrates cart operations.
type Service struct {
	repo    Repository
	items   ItemReader
	tx      txn.Manager
	pricing pricing.Calculator
	log     zerolog.Logger
}

func NewService(repo Repository, items ItemReader, tx txn.Manager, calc pricing.Calculator, log zerolog.Logger) *Service {
	return &Service{repo: repo, items: items, tx: tx, pricing: calc, log: log}
}

// View is a cart plus its priced summary.
type View struct {
	Cart
	Summary pricing.Summary `json:"orderSummary"`
}

// Get returns the cart under key, or the empty cart when there is none.
func (s *Service) Get(ctx context.Context, key Key) (Cart, error) {
	c, err := s.repo.Get(ctx, key)
	if apperror.IsKind(err, apperror.KindNotFound) {
		return Empty(), nil
	}
	if err != nil {
		return Cart{}, err
	}
	return *c, nil
}

// View prices the cart under key.
func (s *Service) View(ctx context.Context, key Key) (View, error) {
	c, err := s.Get(ctx, key)
	if err != nil {
		return View{}, err
	}
	return View{Cart: c, Summary: s.pricing.ComputeOrderSummary(c.TotalAmount)}, nil
}

// AddItem snapshots the item's current name, price and image into the cart.
// The resulting line quantity may not exceed live stock.
func (s *Service) AddItem(ctx context.Context, key Key, itemID uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1", map[string]string{"quantity": "must be at least 1"})
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return s.repo.Mutate(ctx, key, true, func(c *Cart) error {
		if !item.Available(c.QuantityOf(itemID) + quantity) {
			return apperror.InsufficientStock(item.ID.String(), item.Name)
		}
		c.Add(Line{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.EffectivePrice(),
			ImageURL: item.ImageURL(),
			Quantity: quantity,
			AddedAt:  now(),
		})
		return nil
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, key Key, itemID uuid.UUID, quantity int) (*Cart, error) {
	return s.repo.Mutate(ctx, key, false, func(c *Cart) error {
		c.SetQuantity(itemID, quantity)
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, key Key, itemID uuid.UUID) (*Cart, error) {
	return s.repo.Mutate(ctx, key, false, func(c *Cart) error {
		c.Remove(itemID)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, key Key) error {
	return s.repo.Delete(ctx, key)
}

// Merge folds the guest cart of sessionID into the customer's cart and
// deletes the guest cart. Quantities of items present in both are summed.
func (s *Service) Merge(ctx context.Context, sessionID string, customerID uuid.UUID) (Cart, error) {
	guestKey, customerKey := SessionKey(sessionID), CustomerKey(customerID)

	guest, err := s.repo.Get(ctx, guestKey)
	if apperror.IsKind(err, apperror.KindNotFound) {
		return s.Get(ctx, customerKey)
	}
	if err != nil {
		return Cart{}, err
	}

	var merged *Cart
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		merged, err = s.repo.Mutate(ctx, customerKey, true, func(c *Cart) error {
			for _, line := range guest.Items {
				c.Add(line)
			}
			return nil
		})
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, guestKey)
	})
	if err != nil {
		return Cart{}, err
	}

	s.log.Info().Str("session_id", sessionID).Str("customer_id", customerID.String()).
		Int("lines", len(guest.Items)).Msg("guest cart merged")
	return *merged, nil
}
