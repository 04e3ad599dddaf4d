package category

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/catalog"
)

// ItemLister is the slice of the catalog the category pages read from.
type ItemLister interface {
	List(ctx context.Context, f catalog.Filter) ([]catalog.Item, error)
}

type Service struct {
	repo  Repository
	items ItemLister
	now   func() time.Time
}

func NewService(repo Repository, items ItemLister) *Service {
	return &Service{repo: repo, items: items, now: func() time.Time { return time.Now().UTC() }}
}

// Input carries the writable fields of a category. An empty Slug is derived from Name.
type Input struct {
	Name         string `json:"name" validate:"required,max=100"`
	Slug         string `json:"slug" validate:"max=120"`
	Description  string `json:"description" validate:"required,max=500"`
	ImageURL     string `json:"imageUrl" validate:"omitempty,url"`
	IsActive     *bool  `json:"isActive"`
	DisplayOrder int    `json:"displayOrder" validate:"gte=0"`
}

func (in Input) slug() (string, error) {
	src := in.Slug
	if src == "" {
		src = in.Name
	}
	slug := Slugify(src)
	if slug == "" {
		return "", apperror.Validation("", map[string]string{"slug": "must contain a letter or digit"})
	}
	return slug, nil
}

func (in Input) apply(c *Category, slug string) {
	c.Name = in.Name
	c.Slug = slug
	c.Description = in.Description
	c.ImageURL = in.ImageURL
	c.DisplayOrder = in.DisplayOrder
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	return s.repo.GetByID(ctx, id)
}

// CheckCategory returns a not-found error when id names no category.
func (s *Service) CheckCategory(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.GetByID(ctx, id)
	return err
}

// Create stores a new category, active unless the input says otherwise.
func (s *Service) Create(ctx context.Context, in Input) (Category, error) {
	slug, err := in.slug()
	if err != nil {
		return Category{}, err
	}
	now := s.now()
	c := Category{ID: uuid.New(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	in.apply(&c, slug)
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Category, error) {
	slug, err := in.slug()
	if err != nil {
		return Category{}, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	in.apply(&c, slug)
	c.UpdatedAt = s.now()
	return s.repo.Update(ctx, c)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	c.IsActive = active
	c.UpdatedAt = s.now()
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Items lists the items of an active category. Inactive categories read as missing.
func (s *Service) Items(ctx context.Context, id uuid.UUID, inStockOnly bool) (Category, []catalog.Item, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, nil, err
	}
	if !c.IsActive {
		return Category{}, nil, notFound(id)
	}
	items, err := s.items.List(ctx, catalog.Filter{CategoryID: &c.ID, InStockOnly: inStockOnly})
	if err != nil {
		return Category{}, nil, err
	}
	return c, items, nil
}

// ItemsForCategories merges the items of several active categories. Each item
// appears once, tagged with the first requested category it was found under.
// Unknown and inactive ids are skipped.
func (s *Service) ItemsForCategories(ctx context.Context, ids []uuid.UUID) ([]CategorizedItem, error) {
	seen := make(map[uuid.UUID]bool)
	out := make([]CategorizedItem, 0)
	for _, id := range ids {
		c, err := s.repo.GetByID(ctx, id)
		if apperror.IsKind(err, apperror.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !c.IsActive {
			continue
		}
		items, err := s.items.List(ctx, catalog.Filter{CategoryID: &c.ID})
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			out = append(out, CategorizedItem{Item: it, Category: c.Summary()})
		}
	}
	return out, nil
}
