package order

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
	"github.com/wichananm65/grocery-backend/internal/validation"
)

// Handler exposes order administration and customer order history.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterProtectedRoutes expects r to already enforce authentication; guard
// restricts the administration routes to admins.
func (h *Handler) RegisterProtectedRoutes(r fiber.Router, guard fiber.Handler) {
	r.Get("/orders", guard, h.listOrders)
	// registered before /orders/:id so "stats" is not taken for an id
	r.Get("/orders/stats/summary", guard, h.summary)
	r.Get("/orders/:id", h.getOrder)
	r.Put("/orders/:id/status", guard, h.updateStatus)
	r.Put("/orders/:id/tracking", guard, h.updateTracking)
	r.Get("/customers/:customerId/orders", h.customerOrders)
}

type statusRequest struct {
	Status     string  `json:"status" validate:"required"`
	AdminNotes *string `json:"adminNotes"`
	UpdatedBy  string  `json:"updatedBy"`
}

type trackingRequest struct {
	TrackingNumber string `json:"trackingNumber" validate:"required"`
}

type pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalOrders int  `json:"totalOrders"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func paginate(q Query, total int) pagination {
	pages := (total + q.Limit - 1) / q.Limit
	return pagination{
		CurrentPage: q.Page,
		TotalPages:  pages,
		TotalOrders: total,
		HasNext:     q.Page < pages,
		HasPrev:     q.Page > 1,
	}
}

func queryFrom(c *fiber.Ctx) (Query, error) {
	q := Query{
		Page:   c.QueryInt("page", defaultPage),
		Limit:  c.QueryInt("limit", 0),
		SortBy: SortKey(c.Query("sortBy", string(SortCreatedAt))),
		Desc:   !strings.EqualFold(c.Query("sortOrder", "desc"), "asc"),
	}
	if raw := c.Query("status"); raw != "" && !strings.EqualFold(raw, "all") {
		st, err := ParseStatus(raw)
		if err != nil {
			return Query{}, err
		}
		q.Status = st
	}
	if !q.SortBy.valid() {
		return Query{}, apperror.Validation("", map[string]string{"sortBy": "must be one of [createdAt totalAmount orderNumber orderStatus]"})
	}
	return q, nil
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	q, err := queryFrom(c)
	if err != nil {
		return err
	}
	orders, total, q, err := h.service.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orders": orders, "pagination": paginate(q, total)})
}

func (h *Handler) customerOrders(c *fiber.Ctx) error {
	customerID, err := parseID(c.Params("customerId"))
	if err != nil {
		return err
	}
	if self, ok := auth.CustomerID(c); !auth.IsAdmin(c) && (!ok || self != customerID) {
		return apperror.Forbidden("")
	}
	q, err := queryFrom(c)
	if err != nil {
		return err
	}
	orders, total, q, err := h.service.ListByCustomer(c.UserContext(), customerID, q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orders": orders, "pagination": paginate(q, total)})
}

// getOrder is open to admins and to the customer who placed the order.
func (h *Handler) getOrder(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	o, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !auth.IsAdmin(c) {
		self, ok := auth.CustomerID(c)
		if !ok || o.CustomerID == nil || *o.CustomerID != self {
			return apperror.Forbidden("")
		}
	}
	return c.JSON(o)
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req statusRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	actor := req.UpdatedBy
	if actor == "" {
		actor = auth.Actor(c, "admin")
	}

	o, err := h.service.SetStatus(c.UserContext(), id, StatusUpdate{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
		Actor:      actor,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Order status updated successfully", "order": o})
}

func (h *Handler) updateTracking(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req trackingRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	o, err := h.service.SetTracking(c.UserContext(), id, req.TrackingNumber)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Tracking number added successfully", "order": o})
}

func (h *Handler) summary(c *fiber.Ctx) error {
	s, err := h.service.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(s)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid id", map[string]string{"id": "must be a valid UUID"})
	}
	return id, nil
}
