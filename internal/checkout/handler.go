package checkout

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
	"github.com/wichananm65/grocery-backend/internal/cart"
	"github.com/wichananm65/grocery-backend/internal/order"
	"github.com/wichananm65/grocery-backend/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/checkout/info", h.info)
	r.Post("/checkout/process", h.process)
}

type processRequest struct {
	cart.Owner
	CustomerInfo    order.CustomerInfo   `json:"customerInfo"`
	ShippingAddress order.Address        `json:"shippingAddress"`
	BillingAddress  order.BillingAddress `json:"billingAddress"`
	PaymentMethod   string               `json:"paymentMethod" validate:"required"`
	Notes           string               `json:"notes" validate:"max=1000"`
}

func (h *Handler) info(c *fiber.Ctx) error {
	var owner cart.Owner
	if err := validation.ParseBody(c, &owner); err != nil {
		return err
	}
	key, err := cart.ResolveKey(c, owner)
	if err != nil {
		return err
	}
	// A body customerId is only a cart address; the profile needs a token.
	_, authenticated := auth.CustomerID(c)
	info, err := h.service.Info(c.UserContext(), key, authenticated)
	if err != nil {
		return err
	}
	return c.JSON(info)
}

func (h *Handler) process(c *fiber.Ctx) error {
	var req processRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	method, ok := order.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return apperror.Validation("", map[string]string{"paymentMethod": "must be one of [cod online card]"})
	}
	key, err := cart.ResolveKey(c, req.Owner)
	if err != nil {
		return err
	}

	placed, err := h.service.Process(c.UserContext(), key, Request{
		CustomerInfo:    req.CustomerInfo,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   method,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Order placed successfully", "order": placed})
}
