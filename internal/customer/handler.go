package customer

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
	"github.com/wichananm65/grocery-backend/internal/validation"
)

type Handler struct {
	service   *Service
	jwtSecret string
	tokenTTL  time.Duration
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewHandler(service *Service, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{service: service, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/customers", h.register)
	r.Post("/customers/sign-in", h.signIn)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/customers/:id", h.getCustomer)
}

func (h *Handler) register(c *fiber.Ctx) error {
	var reg Registration
	if err := validation.ParseBody(c, &reg); err != nil {
		return err
	}
	created, err := h.service.Register(c.UserContext(), reg)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) signIn(c *fiber.Ctx) error {
	var payload signInRequest
	if err := validation.ParseBody(c, &payload); err != nil {
		return err
	}

	cust, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	signed, err := auth.IssueToken(h.jwtSecret, cust.ID, cust.Email, cust.Role, h.tokenTTL)
	if err != nil {
		return apperror.Internal(err)
	}

	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"customer": cust,
		"token":    signed,
	})
}

// getCustomer is open to admins and to the customer themself.
func (h *Handler) getCustomer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperror.Validation("invalid id", map[string]string{"id": "must be a valid UUID"})
	}
	if self, ok := auth.CustomerID(c); !auth.IsAdmin(c) && (!ok || self != id) {
		return apperror.Forbidden("")
	}

	cust, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(cust)
}
