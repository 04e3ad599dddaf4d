package customer

import (
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
)

var (
	ErrNotFound           = &apperror.Error{Kind: apperror.KindNotFound, Message: "customer not found"}
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")
	ErrEmailExists        = apperror.Conflict("email already exists")
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type Customer struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Phone           string    `json:"phone"`
	Gender          string    `json:"gender,omitempty"`
	Address         string    `json:"address,omitempty"`
	ShippingAddress *Address  `json:"shippingAddress,omitempty"`
	BillingAddress  *Address  `json:"billingAddress,omitempty"`
	Role            string    `json:"role"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
