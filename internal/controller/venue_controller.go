package controller

import (
	"venue-guide-be/internal/dto"
	"venue-guide-be/internal/pkg/serverutils"
	"venue-guide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVenueController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Waypoints(ctx *fiber.Ctx) error
	Waypoint(ctx *fiber.Ctx) error
	Near(ctx *fiber.Ctx) error
	Heatmap(ctx *fiber.Ctx) error
}

type venueController struct {
	service service.IVenueService
}

func NewVenueController(service service.IVenueService) IVenueController {
	return &venueController{service: service}
}

func (c *venueController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/venue")
	h.Get("", c.Show)
	h.Get("/waypoints", c.Waypoints)
	h.Get("/waypoints/:id", c.Waypoint)
	h.Get("/near", c.Near)
	h.Get("/heatmap", c.Heatmap)
}

func (c *venueController) Show(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Venue", c.service.Show(ctx.Context())))
}

func (c *venueController) Waypoints(ctx *fiber.Ctx) error {
	res, err := c.service.Waypoints(ctx.Context(), ctx.Query("category", ""))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Waypoints", res))
}

func (c *venueController) Waypoint(ctx *fiber.Ctx) error {
	res, err := c.service.Waypoint(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Waypoint", res))
}

func (c *venueController) Near(ctx *fiber.Ctx) error {
	var q dto.NearQuery
	if err := ctx.QueryParser(&q); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Nearby waypoints", c.service.Near(ctx.Context(), q)))
}

func (c *venueController) Heatmap(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Congestion heatmap", c.service.Heatmap(ctx.Context())))
}
