package customer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type Registration struct {
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=6"`
	FirstName       string   `json:"firstName" validate:"required"`
	LastName        string   `json:"lastName" validate:"required"`
	Phone           string   `json:"phone" validate:"required"`
	Gender          string   `json:"gender"`
	Address         string   `json:"address"`
	ShippingAddress *Address `json:"shippingAddress"`
	BillingAddress  *Address `json:"billingAddress"`
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Register(ctx context.Context, reg Registration) (Customer, error) {
	return s.create(ctx, reg, auth.RoleCustomer)
}

// EnsureAdmin creates the admin account on first start. An existing account
// with that email is left as it is.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (Customer, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err == nil {
		return existing, false, nil
	}
	if !apperror.IsKind(err, apperror.KindNotFound) {
		return Customer{}, false, err
	}
	c, err := s.create(ctx, Registration{Email: email, Password: password, FirstName: "Store", LastName: "Admin"}, auth.RoleAdmin)
	return c, err == nil, err
}

func (s *Service) create(ctx context.Context, reg Registration, role string) (Customer, error) {
	email := strings.TrimSpace(reg.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return Customer{}, ErrEmailExists
	} else if !apperror.IsKind(err, apperror.KindNotFound) {
		return Customer{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return Customer{}, apperror.Internal(err)
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, Customer{
		ID:              uuid.New(),
		Email:           email,
		PasswordHash:    string(hashed),
		FirstName:       reg.FirstName,
		LastName:        reg.LastName,
		Phone:           reg.Phone,
		Gender:          reg.Gender,
		Address:         reg.Address,
		ShippingAddress: reg.ShippingAddress,
		BillingAddress:  reg.BillingAddress,
		Role:            role,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Customer, error) {
	c, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return Customer{}, ErrInvalidCredentials
		}
		return Customer{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return Customer{}, ErrInvalidCredentials
	}
	return c, nil
}
