package controller

import (
	"venue-guide-be/internal/dto"
	"venue-guide-be/internal/entity"
	"venue-guide-be/internal/pkg/serverutils"
	"venue-guide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAlertController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	UpdateStatus(ctx *fiber.Ctx) error
}

type alertController struct {
	service service.IEmergencyService
}

func NewAlertController(service service.IEmergencyService) IAlertController {
	return &alertController{service: service}
}

func (c *alertController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/alerts")
	h.Get("", c.List)
	h.Patch("/:id", c.UpdateStatus)
}

func (c *alertController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Emergency alerts", c.service.List(ctx.Context())))
}

func (c *alertController) UpdateStatus(ctx *fiber.Ctx) error {
	var req dto.UpdateAlertRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateStatus(ctx.Context(), ctx.Params("id"), entity.AlertStatus(req.Status))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Alert updated", res))
}
