package pricing

import (
	"github.com/shopspring/decimal"
)

func init() {
	// amounts go over the wire as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Default policy values used by the storefront.
var (
	DefaultFreeShippingThreshold = decimal.NewFromInt(2000)
	DefaultShippingFee           = decimal.NewFromInt(150)
	DefaultTaxRate               = decimal.RequireFromString("0.05")
)

// Policy holds the shipping and tax constants.
type Policy struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPolicy returns free shipping above 2000, a flat 150 fee otherwise and 5% tax.
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		ShippingFee:           DefaultShippingFee,
		TaxRate:               DefaultTaxRate,
	}
}

// Summary is the priced breakdown of a cart or order.
type Summary struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

// Display is Summary rendered with two decimal places.
type Display struct {
	Subtotal     string `json:"subtotal"`
	ShippingCost string `json:"shippingCost"`
	Tax          string `json:"tax"`
	TotalAmount  string `json:"totalAmount"`
}

func (s Summary) Display() Display {
	return Display{
		Subtotal:     s.Subtotal.StringFixed(2),
		ShippingCost: s.ShippingCost.StringFixed(2),
		Tax:          s.Tax.StringFixed(2),
		TotalAmount:  s.TotalAmount.StringFixed(2),
	}
}

// Calculator prices a subtotal under a fixed Policy. It keeps no state
// between calls.
type Calculator struct {
	policy Policy
}

func NewCalculator(p Policy) Calculator {
	return Calculator{policy: p}
}

func (c Calculator) Policy() Policy { return c.policy }

// ComputeOrderSummary returns subtotal, shipping, tax and total for subtotal.
// Shipping is free only when subtotal is strictly above the threshold.
func (c Calculator) ComputeOrderSummary(subtotal decimal.Decimal) Summary {
	shipping := c.policy.ShippingFee
	if subtotal.GreaterThan(c.policy.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(c.policy.TaxRate)
	return Summary{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		TotalAmount:  subtotal.Add(shipping).Add(tax),
	}
}

// LineTotal is unitPrice × quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
