package banner

import (
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
)

// Banner is a promotional slot on the storefront home page.
type Banner struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"imageUrl"`
	LinkURL      string     `json:"linkUrl"`
	IsActive     bool       `json:"isActive"`
	DisplayOrder int        `json:"displayOrder"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	CreatedBy    *uuid.UUID `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// LiveAt reports whether the banner is switched on and now falls inside its
// start and end dates. A nil end date never expires.
func (b Banner) LiveAt(now time.Time) bool {
	if !b.IsActive || b.StartDate.After(now) {
		return false
	}
	return b.EndDate == nil || !b.EndDate.Before(now)
}

// Position moves one banner to a new display order.
type Position struct {
	ID           uuid.UUID `json:"id"`
	DisplayOrder int       `json:"displayOrder" validate:"gte=0"`
}

func notFound(id uuid.UUID) error {
	return apperror.NotFound("banner", id.String())
}
