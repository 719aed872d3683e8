package controller

import (
	"venue-guide-be/internal/dto"
	"venue-guide-be/internal/pkg/serverutils"
	"venue-guide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITelemetryController interface {
	RegisterRoutes(r fiber.Router)
	IngestCongestion(ctx *fiber.Ctx) error
}

type telemetryController struct {
	service service.ITelemetryService
}

func NewTelemetryController(service service.ITelemetryService) ITelemetryController {
	return &telemetryController{service: service}
}

func (c *telemetryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/telemetry/v1")
	h.Post("congestion", c.IngestCongestion)
}

// IngestCongestion queues the snapshot; sessions react asynchronously.
func (c *telemetryController) IngestCongestion(ctx *fiber.Ctx) error {
	var req dto.CongestionReport
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Ingest(ctx.UserContext(), req); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Congestion snapshot accepted", dto.CongestionResponse{
		Accepted: true,
		Readings: len(req.Levels),
	}))
}
