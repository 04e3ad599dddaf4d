package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/cart"
	"github.com/wichananm65/grocery-backend/internal/catalog"
	"github.com/wichananm65/grocery-backend/internal/customer"
	"github.com/wichananm65/grocery-backend/internal/events"
	"github.com/wichananm65/grocery-backend/internal/order"
	"github.com/wichananm65/grocery-backend/internal/pricing"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

// DefaultMaxAttempts bounds retries after an order number collision.
const DefaultMaxAttempts = 3

const systemActor = "system"

type CartStore interface {
	Get(ctx context.Context, key cart.Key) (*cart.Cart, error)
	DeleteIfUnchanged(ctx context.Context, key cart.Key, updatedAt time.Time) error
}

type Inventory interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Item, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type OrderStore interface {
	Create(ctx context.Context, o order.Order) (order.Order, error)
}

type CustomerReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (customer.Customer, error)
}

// NumberFunc generates an order number. It must be random enough that a
// retry after a collision picks a different one.
type NumberFunc func(now time.Time) string

// OrderNumber returns ORD-<unix millis>-<8 hex chars>.
func OrderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(suffix))
}

type Deps struct {
	Carts     CartStore
	Items     Inventory
	Orders    OrderStore
	Customers CustomerReader
	Tx        txn.Manager
	Pricing   pricing.Calculator
	Events    events.Publisher
	Log       zerolog.Logger
}

// Service turns a cart into an order.
type Service struct {
	carts       CartStore
	items       Inventory
	orders      OrderStore
	customers   CustomerReader
	tx          txn.Manager
	pricing     pricing.Calculator
	events      events.Publisher
	log         zerolog.Logger
	maxAttempts int
	number      NumberFunc
	now         func() time.Time
}

type Option func(*Service)

func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithNumberFunc(fn NumberFunc) Option {
	return func(s *Service) { s.number = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(d Deps, opts ...Option) *Service {
	s := &Service{
		carts:       d.Carts,
		items:       d.Items,
		orders:      d.Orders,
		customers:   d.Customers,
		tx:          d.Tx,
		pricing:     d.Pricing,
		events:      d.Events,
		log:         d.Log,
		maxAttempts: DefaultMaxAttempts,
		number:      OrderNumber,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info is what the storefront shows on the checkout page.
type Info struct {
	Cart         cart.Cart          `json:"cart"`
	Customer     *customer.Customer `json:"customer"`
	OrderSummary pricing.Summary    `json:"orderSummary"`
	Display      pricing.Display    `json:"display"`
}

// Request carries everything the buyer submits with the order.
type Request struct {
	CustomerInfo    order.CustomerInfo
	ShippingAddress order.Address
	BillingAddress  order.BillingAddress
	PaymentMethod   order.PaymentMethod
	Notes           string
}

func (s *Service) load(ctx context.Context, key cart.Key) (*cart.Cart, error) {
	c, err := s.carts.Get(ctx, key)
	if apperror.IsKind(err, apperror.KindNotFound) {
		return nil, apperror.EmptyCart("")
	}
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperror.EmptyCart("")
	}
	return c, nil
}

// Info prices the cart. The customer profile is attached only when
// withProfile is set; callers set it once the requester is known to own key.
func (s *Service) Info(ctx context.Context, key cart.Key, withProfile bool) (Info, error) {
	c, err := s.load(ctx, key)
	if err != nil {
		return Info{}, err
	}
	summary := s.pricing.ComputeOrderSummary(c.TotalAmount)
	info := Info{Cart: *c, OrderSummary: summary, Display: summary.Display()}

	if id, ok := key.CustomerID(); ok && withProfile && s.customers != nil {
		cust, err := s.customers.GetByID(ctx, id)
		switch {
		case err == nil:
			info.Customer = &cust
		case !apperror.IsKind(err, apperror.KindNotFound):
			return Info{}, err
		}
	}
	return info, nil
}

// validate re-reads every line against live stock and fails on the first
// line that cannot be filled.
func (s *Service) validate(ctx context.Context, c *cart.Cart) error {
	ids := make([]uuid.UUID, len(c.Items))
	for i, line := range c.Items {
		ids[i] = line.ItemID
	}
	live, err := s.items.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	for _, line := range c.Items {
		it, ok := live[line.ItemID]
		if !ok || !it.Available(line.Quantity) {
			return apperror.InsufficientStock(line.ItemID.String(), line.Name)
		}
	}
	return nil
}

func (s *Service) build(c *cart.Cart, req Request) order.Order {
	at := s.now().UTC()
	summary := s.pricing.ComputeOrderSummary(c.TotalAmount)

	lines := make([]order.Line, len(c.Items))
	for i, l := range c.Items {
		lines[i] = order.NewLine(l.ItemID, l.Name, l.Price, l.Quantity, l.ImageURL)
	}

	shipping := req.ShippingAddress
	if shipping.Country == "" {
		shipping.Country = order.DefaultCountry
	}
	billing := req.BillingAddress
	if billing.SameAsShipping {
		billing = order.BillingAddress{
			Street:         shipping.Street,
			City:           shipping.City,
			State:          shipping.State,
			ZipCode:        shipping.ZipCode,
			Country:        shipping.Country,
			SameAsShipping: true,
		}
	} else if billing.Country == "" {
		billing.Country = order.DefaultCountry
	}

	var customerID *uuid.UUID
	if id, ok := c.Key().CustomerID(); ok {
		customerID = &id
	}

	return order.Order{
		CustomerID:      customerID,
		CustomerInfo:    req.CustomerInfo,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Items:           lines,
		Subtotal:        summary.Subtotal,
		ShippingCost:    summary.ShippingCost,
		Tax:             summary.Tax,
		TotalAmount:     summary.TotalAmount,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   order.PaymentPending,
		OrderStatus:     order.StatusPlaced,
		Notes:           req.Notes,
		UpdatedBy:       systemActor,
		StatusHistory: []order.HistoryEntry{{
			Status:    order.StatusPlaced,
			Timestamp: at,
			UpdatedBy: systemActor,
			Note:      "Order placed",
		}},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Process validates the cart under key, then creates the order, takes the
// stock and deletes the cart in one transaction. A colliding order number
// reruns the transaction with a fresh one.
func (s *Service) Process(ctx context.Context, key cart.Key, req Request) (order.Order, error) {
	c, err := s.load(ctx, key)
	if err != nil {
		return order.Order{}, err
	}
	if err := s.validate(ctx, c); err != nil {
		return order.Order{}, err
	}

	draft := s.build(c, req)
	var placed order.Order
	for attempt := 1; ; attempt++ {
		draft.ID = uuid.New()
		draft.OrderNumber = s.number(s.now())

		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			if placed, err = s.orders.Create(ctx, draft); err != nil {
				return err
			}
			for _, line := range draft.Items {
				if err := s.items.DecrementStock(ctx, line.ItemID, line.Quantity); err != nil {
					if apperror.IsKind(err, apperror.KindNotFound) {
						return apperror.InsufficientStock(line.ItemID.String(), line.Name)
					}
					return err
				}
			}
			// last, since a Redis cart cannot roll back with the SQL writes.
			// A cart edited since it was read fails the checkout instead of
			// losing the new lines.
			return s.carts.DeleteIfUnchanged(ctx, key, c.UpdatedAt)
		})
		if err == nil {
			break
		}
		if !apperror.IsKind(err, apperror.KindDuplicateOrderNumber) || attempt >= s.maxAttempts {
			return order.Order{}, err
		}
		s.log.Warn().Str("order_number", draft.OrderNumber).Int("attempt", attempt).Msg("order number collision, retrying")
	}

	s.log.Info().Str("order_number", placed.OrderNumber).Str("cart", key.String()).
		Int("lines", len(placed.Items)).Str("total", placed.TotalAmount.StringFixed(2)).Msg("order placed")

	events.PublishAsync(s.events, s.log, events.New(events.TypeOrderPlaced, placed.OrderNumber, map[string]any{
		"orderId":       placed.ID,
		"orderNumber":   placed.OrderNumber,
		"customerId":    placed.CustomerID,
		"totalAmount":   placed.TotalAmount,
		"paymentMethod": placed.PaymentMethod,
		"items":         len(placed.Items),
	}))
	return placed, nil
}
