package controller

import (
	"venue-guide-be/internal/dto"
	"venue-guide-be/internal/pkg/serverutils"
	"venue-guide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INavigationController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	SOS(ctx *fiber.Ctx) error
	DismissInsight(ctx *fiber.Ctx) error
}

type navigationController struct {
	service service.INavigationService
}

func NewNavigationController(service service.INavigationService) INavigationController {
	return &navigationController{service: service}
}

func (c *navigationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/navigation/v1")
	h.Post("sessions", c.Create)
	h.Get("sessions/:id", c.Show)
	h.Delete("sessions/:id", c.Delete)
	h.Post("sessions/:id/sos", c.SOS)
	h.Post("sessions/:id/insight/dismiss", c.DismissInsight)
}

func (c *navigationController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Navigation session started", res))
}

func (c *navigationController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Navigation session", res))
}

func (c *navigationController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Terminate(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Navigation session terminated", nil))
}

func (c *navigationController) SOS(ctx *fiber.Ctx) error {
	var req dto.SOSRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SOS(ctx.Context(), ctx.Params("id"), req.Action)
	if err != nil {
		return err
	}
	msg := "SOS activated"
	if req.Action == dto.SOSClear {
		msg = "SOS cleared"
	}
	return ctx.JSON(serverutils.SuccessResponse(msg, res))
}

func (c *navigationController) DismissInsight(ctx *fiber.Ctx) error {
	res, err := c.service.DismissInsight(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Insight dismissed", res))
}
