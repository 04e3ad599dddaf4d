package cart

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
	"github.com/wichananm65/grocery-backend/internal/validation"
)

// Handler delegates cart operations to the cart service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterPublicRoutes mounts the cart endpoints. Guests address their cart by
// session id; a bearer token, when present, pins the cart to its customer.
func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/cart/:key", h.getCart)
	r.Post("/cart/add", h.addItem)
	r.Put("/cart/update", h.updateItem)
	r.Delete("/cart/remove", h.removeItem)
	r.Delete("/cart/clear/:key", h.clearCart)
	r.Post("/cart/merge", h.mergeCart)
}

// Owner names the cart a request acts on.
type Owner struct {
	CustomerID string `json:"customerId" validate:"omitempty,uuid"`
	SessionID  string `json:"sessionId" validate:"omitempty,max=128"`
}

// ResolveKey picks the cart key for a request: the token's customer wins,
// otherwise exactly one of customerId and sessionId must be given.
func ResolveKey(c *fiber.Ctx, o Owner) (Key, error) {
	if id, ok := auth.CustomerID(c); ok {
		return CustomerKey(id), nil
	}
	switch {
	case o.CustomerID != "" && o.SessionID != "":
		return Key{}, apperror.Validation("provide either customerId or sessionId, not both", map[string]string{
			"customerId": "cannot be combined with sessionId",
		})
	case o.CustomerID != "":
		return ParseKey(string(KeyCustomer), o.CustomerID)
	case o.SessionID != "":
		return SessionKey(o.SessionID), nil
	default:
		return Key{}, apperror.Validation("customer id or session id required", map[string]string{
			"customerId": "is required without sessionId",
		})
	}
}

// pathKey reads /:key?type=customer|session; type defaults to session.
func pathKey(c *fiber.Ctx) (Key, error) {
	key, err := ParseKey(c.Query("type", string(KeySession)), c.Params("key"))
	if err != nil {
		return Key{}, err
	}
	if id, ok := auth.CustomerID(c); ok && !auth.IsAdmin(c) && key.Kind == KeyCustomer && key.ID != id.String() {
		return Key{}, apperror.Forbidden("cart belongs to another customer")
	}
	return key, nil
}

type lineRequest struct {
	Owner
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity *int      `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	key, err := pathKey(c)
	if err != nil {
		return err
	}
	view, err := h.service.View(c.UserContext(), key)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	var req lineRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	key, err := ResolveKey(c, req.Owner)
	if err != nil {
		return err
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	cart, err := h.service.AddItem(c.UserContext(), key, req.ItemID, quantity)
	if err != nil {
		return err
	}
	return c.JSON(cart)
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	var req lineRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	if req.Quantity == nil {
		return apperror.Validation("quantity is required", map[string]string{"quantity": "is required"})
	}
	key, err := ResolveKey(c, req.Owner)
	if err != nil {
		return err
	}
	cart, err := h.service.UpdateQuantity(c.UserContext(), key, req.ItemID, *req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(cart)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	var req lineRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	key, err := ResolveKey(c, req.Owner)
	if err != nil {
		return err
	}
	cart, err := h.service.RemoveItem(c.UserContext(), key, req.ItemID)
	if err != nil {
		return err
	}
	return c.JSON(cart)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	key, err := pathKey(c)
	if err != nil {
		return err
	}
	if err := h.service.Clear(c.UserContext(), key); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Cart cleared successfully"})
}

type mergeRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
}

// mergeCart moves a guest cart into the signed-in customer's cart. Clients
// call it once after sign-in; nothing merges implicitly.
func (h *Handler) mergeCart(c *fiber.Ctx) error {
	customerID, ok := auth.CustomerID(c)
	if !ok {
		return apperror.Unauthorized("sign in to merge a guest cart")
	}
	var req mergeRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	cart, err := h.service.Merge(c.UserContext(), req.SessionID, customerID)
	if err != nil {
		return err
	}
	return c.JSON(cart)
}
