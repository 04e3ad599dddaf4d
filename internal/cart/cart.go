package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/pricing"
)

type KeyKind string

const (
	KeyCustomer KeyKind = "customer"
	KeySession  KeyKind = "session"
)

// Key identifies a cart by exactly one owner: a customer or a guest session.
type Key struct {
	Kind KeyKind
	ID   string
}

func CustomerKey(id uuid.UUID) Key { return Key{Kind: KeyCustomer, ID: id.String()} }

func SessionKey(id string) Key { return Key{Kind: KeySession, ID: id} }

func (k Key) String() string { return string(k.Kind) + ":" + k.ID }

// CustomerID parses the key's id when it names a customer.
func (k Key) CustomerID() (uuid.UUID, bool) {
	if k.Kind != KeyCustomer {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(k.ID)
	return id, err == nil
}

// ParseKey builds a key from a raw id and a kind name ("customer" or "session").
func ParseKey(kind, id string) (Key, error) {
	switch KeyKind(kind) {
	case KeyCustomer:
		if _, err := uuid.Parse(id); err != nil {
			return Key{}, apperror.Validation("invalid customer id", map[string]string{"customerId": "must be a valid UUID"})
		}
		return Key{Kind: KeyCustomer, ID: id}, nil
	case KeySession:
		if id == "" {
			return Key{}, apperror.Validation("session id required", map[string]string{"sessionId": "is required"})
		}
		return Key{Kind: KeySession, ID: id}, nil
	default:
		return Key{}, apperror.Validation("invalid cart type", map[string]string{"type": "must be one of [customer session]"})
	}
}

// Line is one cart entry. Name, price and image are captured when the item
// is first added.
type Line struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"addedAt"`
}

func (l Line) Subtotal() decimal.Decimal {
	return pricing.LineTotal(l.Price, l.Quantity)
}

type Cart struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  *uuid.UUID      `json:"customerId,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	Items       []Line          `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func newCart(key Key, now time.Time) *Cart {
	c := &Cart{ID: uuid.New(), Items: []Line{}, TotalAmount: decimal.Zero, CreatedAt: now, UpdatedAt: now}
	if id, ok := key.CustomerID(); ok {
		c.CustomerID = &id
	} else {
		c.SessionID = key.ID
	}
	return c
}

// Empty is the synthetic cart returned for owners that have none yet.
func Empty() Cart {
	return Cart{Items: []Line{}, TotalAmount: decimal.Zero}
}

func (c *Cart) Key() Key {
	if c.CustomerID != nil {
		return CustomerKey(*c.CustomerID)
	}
	return SessionKey(c.SessionID)
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) find(itemID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// QuantityOf is the quantity of itemID already in the cart.
func (c *Cart) QuantityOf(itemID uuid.UUID) int {
	if i := c.find(itemID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Add appends line or bumps the quantity of the existing line for the same item.
func (c *Cart) Add(line Line) {
	if i := c.find(line.ItemID); i >= 0 {
		c.Items[i].Quantity += line.Quantity
		return
	}
	c.Items = append(c.Items, line)
}

// SetQuantity replaces a line's quantity; zero or less removes it. Unknown
// items are ignored.
func (c *Cart) SetQuantity(itemID uuid.UUID, quantity int) {
	i := c.find(itemID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.Remove(itemID)
		return
	}
	c.Items[i].Quantity = quantity
}

func (c *Cart) Remove(itemID uuid.UUID) {
	if i := c.find(itemID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// recalculate derives the totals from the lines. Stores call it on every write.
func (c *Cart) recalculate(now time.Time) {
	total := decimal.Zero
	count := 0
	for _, l := range c.Items {
		count += l.Quantity
		total = total.Add(l.Subtotal())
	}
	c.TotalItems = count
	c.TotalAmount = total
	c.UpdatedAt = now
}

func (c *Cart) clone() *Cart {
	cp := *c
	cp.Items = append([]Line(nil), c.Items...)
	if cp.Items == nil {
		cp.Items = []Line{}
	}
	if c.CustomerID != nil {
		id := *c.CustomerID
		cp.CustomerID = &id
	}
	return &cp
}
