package banner

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

type reorderRequest struct {
	Banners []Position `json:"banners" validate:"required,min=1,max=100,dive"`
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/banners/active", h.activeBanners)
}

// RegisterProtectedRoutes expects r to already enforce authentication;
// guard adds the role check.
func (h *Handler) RegisterProtectedRoutes(r fiber.Router, guard fiber.Handler) {
	r.Get("/banners", guard, h.listBanners)
	r.Post("/banners", guard, h.createBanner)
	r.Put("/banners/order", guard, h.reorderBanners)
	r.Get("/banners/:id", guard, h.getBanner)
	r.Put("/banners/:id", guard, h.updateBanner)
	r.Put("/banners/:id/toggle-status", guard, h.toggleBanner)
	r.Delete("/banners/:id", guard, h.deleteBanner)
}

func (h *Handler) activeBanners(c *fiber.Ctx) error {
	banners, err := h.service.Active(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(banners)
}

func (h *Handler) listBanners(c *fiber.Ctx) error {
	banners, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(banners)
}

func (h *Handler) getBanner(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	b, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(b)
}

func (h *Handler) createBanner(c *fiber.Ctx) error {
	var in Input
	if err := validation.ParseBody(c, &in); err != nil {
		return err
	}
	var createdBy *uuid.UUID
	if id, ok := auth.CustomerID(c); ok {
		createdBy = &id
	}
	b, err := h.service.Create(c.UserContext(), in, createdBy)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

func (h *Handler) updateBanner(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var in Input
	if err := validation.ParseBody(c, &in); err != nil {
		return err
	}
	b, err := h.service.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(b)
}

func (h *Handler) toggleBanner(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	b, err := h.service.Toggle(c.UserContext(), id)
	if err != nil {
		return err
	}
	state := "deactivated"
	if b.IsActive {
		state = "activated"
	}
	return c.JSON(fiber.Map{"message": "banner " + state, "banner": b})
}

func (h *Handler) reorderBanners(c *fiber.Ctx) error {
	var req reorderRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	if err := h.service.Reorder(c.UserContext(), req.Banners); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "banner order updated", "count": len(req.Banners)})
}

func (h *Handler) deleteBanner(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "banner deleted"})
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid id", map[string]string{"id": "must be a valid UUID"})
	}
	return id, nil
}
