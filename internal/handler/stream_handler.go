package handler

import (
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/internal/pkg/serverutils"
	"venue-guide-be/internal/service"
	internalWS "venue-guide-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// StreamHandler upgrades viewers of a navigation session to a websocket that
// carries the session's events as {type, data, at} frames.
type StreamHandler struct {
	service service.INavigationService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewStreamHandler(service service.INavigationService, hub *internalWS.Hub, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if !h.service.Exists(sessionID) {
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "navigation session not found"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("StreamHandler", "Starting stream", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID)
			h.logger.Info("StreamHandler", "Stream ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/navigation/v1/sessions/:id/stream", h.ServeWs)
}
