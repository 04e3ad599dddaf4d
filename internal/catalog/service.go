package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/grocery-backend/internal/apperror"
)

// CategoryChecker confirms a category id names an existing category.
type CategoryChecker interface {
	CheckCategory(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo       Repository
	categories CategoryChecker
	now        func() time.Time
}

type Option func(*Service)

// WithCategoryChecker makes Create and Update reject unknown category ids.
func WithCategoryChecker(c CategoryChecker) Option {
	return func(s *Service) { s.categories = c }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries the writable fields of an item.
type Input struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Description   string           `json:"description"`
	Images        []Image          `json:"images" validate:"dive"`
	RegularPrice  decimal.Decimal  `json:"regularPrice"`
	SalePrice     *decimal.Decimal `json:"salePrice"`
	StockQuantity int              `json:"stockQuantity" validate:"gte=0"`
	Weight        float64          `json:"weight" validate:"gte=0"`
	Dimensions    Dimensions       `json:"dimensions"`
	CategoryID    *uuid.UUID       `json:"categoryId"`
}

func (in Input) check() error {
	fields := map[string]string{}
	if in.RegularPrice.IsNegative() {
		fields["regularPrice"] = "must be at least 0"
	}
	if in.SalePrice != nil && in.SalePrice.IsNegative() {
		fields["salePrice"] = "must be at least 0"
	}
	if len(fields) > 0 {
		return apperror.Validation("request validation failed", fields)
	}
	return nil
}

func (in Input) apply(it *Item) {
	it.Name = in.Name
	it.Description = in.Description
	it.Images = in.Images
	if it.Images == nil {
		it.Images = []Image{}
	}
	it.RegularPrice = in.RegularPrice
	it.SalePrice = decimal.NullDecimal{}
	if in.SalePrice != nil {
		it.SalePrice = decimal.NewNullDecimal(*in.SalePrice)
	}
	it.StockQuantity = in.StockQuantity
	it.StockStatus = statusFor(in.StockQuantity)
	it.Weight = in.Weight
	it.Dimensions = in.Dimensions
	it.CategoryID = in.CategoryID
}

func (s *Service) checkCategory(ctx context.Context, in Input) error {
	if in.CategoryID == nil || s.categories == nil {
		return nil
	}
	err := s.categories.CheckCategory(ctx, *in.CategoryID)
	if apperror.IsKind(err, apperror.KindNotFound) {
		return apperror.Validation("", map[string]string{"categoryId": "unknown category"})
	}
	return err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Item, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Item, error) {
	if err := in.check(); err != nil {
		return Item{}, err
	}
	if err := s.checkCategory(ctx, in); err != nil {
		return Item{}, err
	}
	now := s.now()
	it := Item{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	in.apply(&it)
	return s.repo.Create(ctx, it)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Item, error) {
	if err := in.check(); err != nil {
		return Item{}, err
	}
	if err := s.checkCategory(ctx, in); err != nil {
		return Item{}, err
	}
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Item{}, err
	}
	in.apply(&it)
	it.UpdatedAt = s.now()
	return s.repo.Update(ctx, it)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
