package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/grocery-backend/internal/apperror"
)

type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	OutOfStock StockStatus = "out_of_stock"
)

// ErrNotFound matches any missing-item error via errors.Is.
var ErrNotFound = &apperror.Error{Kind: apperror.KindNotFound, Message: "item not found"}

type Image struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	IsCover bool   `json:"isCover"`
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Item is a sellable catalog entry.
type Item struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Images        []Image             `json:"images"`
	RegularPrice  decimal.Decimal     `json:"regularPrice"`
	SalePrice     decimal.NullDecimal `json:"salePrice"`
	StockStatus   StockStatus         `json:"stockStatus"`
	StockQuantity int                 `json:"stockQuantity"`
	Weight        float64             `json:"weight"`
	Dimensions    Dimensions          `json:"dimensions"`
	CategoryID    *uuid.UUID          `json:"categoryId"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// EffectivePrice is the sale price when set and below the regular price.
func (i Item) EffectivePrice() decimal.Decimal {
	if i.SalePrice.Valid && i.SalePrice.Decimal.LessThan(i.RegularPrice) {
		return i.SalePrice.Decimal
	}
	return i.RegularPrice
}

// ImageURL is the cover image, falling back to the first image.
func (i Item) ImageURL() string {
	for _, img := range i.Images {
		if img.IsCover {
			return img.URL
		}
	}
	if len(i.Images) > 0 {
		return i.Images[0].URL
	}
	return ""
}

// Available reports whether quantity more units can be sold.
func (i Item) Available(quantity int) bool {
	return i.StockStatus != OutOfStock && i.StockQuantity >= quantity
}

func statusFor(quantity int) StockStatus {
	if quantity > 0 {
		return InStock
	}
	return OutOfStock
}

// Filter narrows List results.
type Filter struct {
	Search      string
	InStockOnly bool
	CategoryID  *uuid.UUID
}

func (f Filter) category() uuid.NullUUID {
	if f.CategoryID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *f.CategoryID, Valid: true}
}
