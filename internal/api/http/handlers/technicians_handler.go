package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// TechniciansHandler exposes the technician directory.
type TechniciansHandler struct {
	technicians *service.TechnicianService
	baseURL     string
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(technicians *service.TechnicianService, baseURL string) *TechniciansHandler {
	return &TechniciansHandler{technicians: technicians, baseURL: baseURL}
}

// Create POST /technicians.
func (h *TechniciansHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTechnicianRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tech, err := h.technicians.Create(c.UserContext(), caller, service.TechnicianCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		PhotoURL:     req.PhotoURL,
		Availability: req.Availability,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTechnicianResponse(tech, h.baseURL)})
}

// List GET /technicians.
func (h *TechniciansHandler) List(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	techs, err := h.technicians.List(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTechnicianResponses(techs, h.baseURL)})
}

// Get GET /technicians/:id.
func (h *TechniciansHandler) Get(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	tech, err := h.technicians.Get(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTechnicianResponse(tech, h.baseURL)})
}

// UpdateAvailability PUT /technicians/:id/availability.
func (h *TechniciansHandler) UpdateAvailability(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAvailabilityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tech, err := h.technicians.UpdateAvailability(c.UserContext(), caller, c.Params("id"), req.Availability)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTechnicianResponse(tech, h.baseURL)})
}

// Delete DELETE /technicians/:id.
func (h *TechniciansHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.technicians.Delete(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
