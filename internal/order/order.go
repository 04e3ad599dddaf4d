package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/pricing"
)

// ErrNotFound matches any missing-order error via errors.Is.
var ErrNotFound = &apperror.Error{Kind: apperror.KindNotFound, Message: "order not found"}

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPlaced     Status = "placed"
	StatusConfirmed  Status = "confirmed"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPlaced, StatusConfirmed, StatusDispatched, StatusDelivered, StatusCancelled}

// storefront labels accepted alongside the canonical values
var statusLabels = map[string]Status{
	"order placed":     StatusPlaced,
	"order confirmed":  StatusConfirmed,
	"order dispatched": StatusDispatched,
	"order delivered":  StatusDelivered,
}

// ParseStatus accepts the canonical value in any case, or the storefront
// label such as "Order Dispatched".
func ParseStatus(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusLabels[v]; ok {
		return s, nil
	}
	if v == "canceled" {
		return StatusCancelled, nil
	}
	s := Status(v)
	if !s.IsValid() {
		return "", apperror.InvalidStatus("invalid order status: " + raw)
	}
	return s, nil
}

func (s Status) IsValid() bool {
	return s.rank() >= 0
}

func (s Status) rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo allows forward moves along placed → confirmed →
// dispatched → delivered and cancelling from any state but cancelled.
func (s Status) CanTransitionTo(to Status) bool {
	if !s.IsValid() || !to.IsValid() || s == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return to.rank() > s.rank()
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
	PaymentCard   PaymentMethod = "card"
)

// ParsePaymentMethod is case-insensitive ("COD" and "cod" are the same).
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case PaymentCOD, PaymentOnline, PaymentCard:
		return m, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// DefaultCountry fills a shipping address that names none.
const DefaultCountry = "Pakistan"

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country"`
}

// BillingAddress needs its own fields only when it differs from shipping.
type BillingAddress struct {
	Street         string `json:"street" validate:"required_unless=SameAsShipping true"`
	City           string `json:"city" validate:"required_unless=SameAsShipping true"`
	State          string `json:"state" validate:"required_unless=SameAsShipping true"`
	ZipCode        string `json:"zipCode" validate:"required_unless=SameAsShipping true"`
	Country        string `json:"country"`
	SameAsShipping bool   `json:"sameAsShipping"`
}

type CustomerInfo struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

// Line is an immutable snapshot of one purchased item.
type Line struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageURL string          `json:"imageUrl"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func NewLine(itemID uuid.UUID, name string, price decimal.Decimal, quantity int, imageURL string) Line {
	return Line{
		ItemID:   itemID,
		Name:     name,
		Price:    price,
		Quantity: quantity,
		ImageURL: imageURL,
		Subtotal: pricing.LineTotal(price, quantity),
	}
}

type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	UpdatedBy string    `json:"updatedBy"`
	Note      string    `json:"note,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	CustomerID      *uuid.UUID      `json:"customerId"`
	CustomerInfo    CustomerInfo    `json:"customerInfo"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  BillingAddress  `json:"billingAddress"`
	Items           []Line          `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Tax             decimal.Decimal `json:"tax"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	OrderStatus     Status          `json:"orderStatus"`
	TrackingNumber  string          `json:"trackingNumber"`
	Notes           string          `json:"notes"`
	AdminNotes      string          `json:"adminNotes"`
	UpdatedBy       string          `json:"updatedBy"`
	StatusHistory   []HistoryEntry  `json:"statusHistory"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (o *Order) clone() Order {
	cp := *o
	cp.Items = append([]Line(nil), o.Items...)
	cp.StatusHistory = append([]HistoryEntry(nil), o.StatusHistory...)
	if o.CustomerID != nil {
		id := *o.CustomerID
		cp.CustomerID = &id
	}
	return cp
}

// StatusChange is what UpdateStatus applies atomically: the new status, its
// history entry and optional admin notes.
type StatusChange struct {
	Status     Status
	Entry      HistoryEntry
	AdminNotes *string
	UpdatedBy  string
	At         time.Time
}

type SortKey string

const (
	SortCreatedAt   SortKey = "createdAt"
	SortTotalAmount SortKey = "totalAmount"
	SortOrderNumber SortKey = "orderNumber"
	SortOrderStatus SortKey = "orderStatus"
)

func (k SortKey) valid() bool {
	switch k {
	case SortCreatedAt, SortTotalAmount, SortOrderNumber, SortOrderStatus:
		return true
	}
	return false
}

// Query selects a page of orders.
type Query struct {
	Status     Status
	CustomerID *uuid.UUID
	Page       int
	Limit      int
	SortBy     SortKey
	Desc       bool
}

func (q Query) offset() int { return (q.Page - 1) * q.Limit }

// Summary is the admin dashboard snapshot. Revenue excludes cancelled orders.
type Summary struct {
	TotalOrders    int             `json:"totalOrders"`
	TodayOrders    int             `json:"todayOrders"`
	StatusCounts   map[Status]int  `json:"statusCounts"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	MonthlyRevenue decimal.Decimal `json:"monthlyRevenue"`
}
