package catalog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/items", h.listItems)
	r.Get("/items/:id", h.getItem)
}

// RegisterProtectedRoutes expects r to already enforce authentication;
// guard adds the role check.
func (h *Handler) RegisterProtectedRoutes(r fiber.Router, guard fiber.Handler) {
	r.Post("/items", guard, h.createItem)
	r.Put("/items/:id", guard, h.updateItem)
	r.Delete("/items/:id", guard, h.deleteItem)
}

func (h *Handler) listItems(c *fiber.Ctx) error {
	f := Filter{
		Search:      c.Query("search"),
		InStockOnly: c.QueryBool("inStock", false),
	}
	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperror.Validation("", map[string]string{"category": "must be a valid UUID"})
		}
		f.CategoryID = &id
	}
	items, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *Handler) getItem(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	it, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(it)
}

func (h *Handler) createItem(c *fiber.Ctx) error {
	var in Input
	if err := validation.ParseBody(c, &in); err != nil {
		return err
	}
	it, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(it)
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var in Input
	if err := validation.ParseBody(c, &in); err != nil {
		return err
	}
	it, err := h.service.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(it)
}

func (h *Handler) deleteItem(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "item deleted"})
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid id", map[string]string{"id": "must be a valid UUID"})
	}
	return id, nil
}
