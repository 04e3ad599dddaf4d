package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
	"github.com/wichananm65/grocery-backend/internal/auth"
	"github.com/wichananm65/grocery-backend/internal/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type activeRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type itemsRequest struct {
	CategoryIDs []uuid.UUID `json:"categoryIds" validate:"required,min=1,max=50"`
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/categories", h.listCategories)
	r.Post("/categories/items", h.itemsForCategories)
	r.Get("/categories/:id", h.getCategory)
	r.Get("/categories/:id/items", h.categoryItems)
}

// RegisterProtectedRoutes expects r to already enforce authentication;
// guard adds the role check.
func (h *Handler) RegisterProtectedRoutes(r fiber.Router, guard fiber.Handler) {
	r.Post("/categories", guard, h.createCategory)
	r.Put("/categories/:id", guard, h.updateCategory)
	r.Put("/categories/:id/active", guard, h.setActive)
	r.Delete("/categories/:id", guard, h.deleteCategory)
}

// listCategories shows inactive categories only to admins asking for them.
func (h *Handler) listCategories(c *fiber.Ctx) error {
	activeOnly := !(c.QueryBool("includeInactive", false) && auth.IsAdmin(c))
	categories, err := h.service.List(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

func (h *Handler) getCategory(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	cat, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !cat.IsActive && !auth.IsAdmin(c) {
		return notFound(id)
	}
	return c.JSON(cat)
}

func (h *Handler) categoryItems(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	cat, items, err := h.service.Items(c.UserContext(), id, c.QueryBool("inStock", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"category": cat, "items": items, "count": len(items)})
}

func (h *Handler) itemsForCategories(c *fiber.Ctx) error {
	var req itemsRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	items, err := h.service.ItemsForCategories(c.UserContext(), req.CategoryIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	var in Input
	if err := validation.ParseBody(c, &in); err != nil {
		return err
	}
	cat, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *Handler) updateCategory(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var in Input
	if err := validation.ParseBody(c, &in); err != nil {
		return err
	}
	cat, err := h.service.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(cat)
}

func (h *Handler) setActive(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req activeRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	cat, err := h.service.SetActive(c.UserContext(), id, *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(cat)
}

func (h *Handler) deleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "category deleted"})
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid id", map[string]string{"id": "must be a valid UUID"})
	}
	return id, nil
}
