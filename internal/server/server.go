package server

import (
	"log"

	"venue-guide-be/internal/bootstrap"
	"venue-guide-be/internal/config"
	"venue-guide-be/internal/pkg/serverutils"
	"venue-guide-be/internal/service"
	"venue-guide-be/pkg/navigation"
	"venue-guide-be/pkg/venue"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

// errorStatuses maps domain sentinels to HTTP statuses.
var errorStatuses = []serverutils.ErrorStatus{
	{Err: service.ErrSessionNotFound, Status: fiber.StatusNotFound},
	{Err: service.ErrAlertNotFound, Status: fiber.StatusNotFound},
	{Err: venue.ErrWaypointNotFound, Status: fiber.StatusNotFound},
	{Err: service.ErrInvalidAlertTransition, Status: fiber.StatusConflict},
	{Err: navigation.ErrAlreadyStarted, Status: fiber.StatusConflict},
	{Err: navigation.ErrSessionTerminated, Status: fiber.StatusGone},
	{Err: venue.ErrInvalidWaypoint, Status: fiber.StatusBadRequest},
	{Err: venue.ErrInvalidCongestion, Status: fiber.StatusBadRequest},
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := NewApp(cfg)
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

// NewApp builds the fiber app with the middleware stack but no routes.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept",
		AllowMethods:  "GET, POST, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware(errorStatuses...))
	return app
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.VenueController.RegisterRoutes(api)
	c.NavigationController.RegisterRoutes(api)
	c.TelemetryController.RegisterRoutes(api)
	c.AlertController.RegisterRoutes(api)

	c.StreamHandler.RegisterRoutes(api)
}
