package banner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/txn"
)

type Service struct {
	repo Repository
	tx   txn.Manager
	now  func() time.Time
}

func NewService(repo Repository, tx txn.Manager) *Service {
	return &Service{repo: repo, tx: tx, now: func() time.Time { return time.Now().UTC() }}
}

// Input carries the writable fields of a banner. A nil StartDate means now on
// create and unchanged on update; a nil EndDate never expires.
type Input struct {
	Title        string     `json:"title" validate:"required,max=100"`
	Description  string     `json:"description" validate:"max=500"`
	ImageURL     string     `json:"imageUrl" validate:"required,url"`
	LinkURL      string     `json:"linkUrl" validate:"omitempty,url"`
	IsActive     *bool      `json:"isActive"`
	DisplayOrder int        `json:"displayOrder" validate:"gte=0"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

func (in Input) apply(b *Banner) error {
	b.Title = in.Title
	b.Description = in.Description
	b.ImageURL = in.ImageURL
	b.LinkURL = in.LinkURL
	b.DisplayOrder = in.DisplayOrder
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if in.StartDate != nil {
		b.StartDate = in.StartDate.UTC()
	}
	b.EndDate = nil
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		if end.Before(b.StartDate) {
			return apperror.Validation("", map[string]string{"endDate": "must not be before startDate"})
		}
		b.EndDate = &end
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Banner, error) {
	return s.repo.List(ctx)
}

// Active returns the banners a shopper should see right now.
func (s *Service) Active(ctx context.Context) ([]Banner, error) {
	return s.repo.ListLive(ctx, s.now())
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Banner, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input, createdBy *uuid.UUID) (Banner, error) {
	now := s.now()
	b := Banner{ID: uuid.New(), IsActive: true, StartDate: now, CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now}
	if err := in.apply(&b); err != nil {
		return Banner{}, err
	}
	return s.repo.Create(ctx, b)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Banner, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Banner{}, err
	}
	if err := in.apply(&b); err != nil {
		return Banner{}, err
	}
	b.UpdatedAt = s.now()
	return s.repo.Update(ctx, b)
}

// Toggle flips IsActive and returns the stored banner.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID) (Banner, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Banner{}, err
	}
	b.IsActive = !b.IsActive
	b.UpdatedAt = s.now()
	return s.repo.Update(ctx, b)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Reorder applies every position or none of them.
func (s *Service) Reorder(ctx context.Context, positions []Position) error {
	seen := make(map[uuid.UUID]bool, len(positions))
	for _, p := range positions {
		if seen[p.ID] {
			return apperror.Validation("", map[string]string{"banners": "banner " + p.ID.String() + " is listed twice"})
		}
		seen[p.ID] = true
	}
	at := s.now()
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, p := range positions {
			if err := s.repo.SetDisplayOrder(ctx, p.ID, p.DisplayOrder, at); err != nil {
				return err
			}
		}
		return nil
	})
}
