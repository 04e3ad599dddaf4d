package category

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/catalog"
)

// ErrSlugTaken is returned when another category already uses the slug.
var ErrSlugTaken = apperror.Conflict("a category with this slug already exists")

// Category groups catalog items for browsing.
type Category struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"imageUrl"`
	IsActive     bool      `json:"isActive"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary is the part of a category attached to items listed across categories.
type Summary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

func (c Category) Summary() Summary {
	return Summary{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

// CategorizedItem is a catalog item with the category it was found under.
type CategorizedItem struct {
	catalog.Item
	Category Summary `json:"category"`
}

// Slugify lowercases name and joins its words with single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func notFound(id uuid.UUID) error {
	return apperror.NotFound("category", id.String())
}
