package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// ServicesHandler exposes the service catalog.
type ServicesHandler struct {
	catalog *service.CatalogService
}

// NewServicesHandler constructs handler.
func NewServicesHandler(catalog *service.CatalogService) *ServicesHandler {
	return &ServicesHandler{catalog: catalog}
}

// List GET /services; ?active=true narrows to selectable services.
func (h *ServicesHandler) List(c *fiber.Ctx) error {
	services, err := h.catalog.List(c.UserContext(), parseBoolQuery(c, "active", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponses(services)})
}

// Create POST /services.
func (h *ServicesHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateServiceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	price, err := parsePrice("price", req.Price)
	if err != nil {
		return err
	}
	svc, err := h.catalog.Create(c.UserContext(), caller, service.ServiceCreateInput{
		Title:     req.Title,
		Price:     price,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// Update PATCH /services/:id.
func (h *ServicesHandler) Update(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateServiceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.ServiceUpdateInput{Title: req.Title, Active: req.Active}
	if req.Price != nil {
		price, err := parsePrice("price", *req.Price)
		if err != nil {
			return err
		}
		input.Price = &price
	}
	svc, err := h.catalog.Update(c.UserContext(), caller, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// Deactivate DELETE /services/:id.
func (h *ServicesHandler) Deactivate(c *fiber.Ctx) error {
	return h.toggle(c, h.catalog.Deactivate)
}

// Reactivate PATCH /services/:id/reactivate.
func (h *ServicesHandler) Reactivate(c *fiber.Ctx) error {
	return h.toggle(c, h.catalog.Reactivate)
}

// HardDelete DELETE /services/:id/hard.
func (h *ServicesHandler) HardDelete(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.catalog.HardDelete(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

type toggleFunc func(ctx context.Context, caller domain.Caller, id string) (*domain.Service, error)

func (h *ServicesHandler) toggle(c *fiber.Ctx, fn toggleFunc) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	svc, err := fn(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}
