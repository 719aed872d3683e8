package bootstrap

import (
	"context"
	"fmt"

	"venue-guide-be/internal/config"
	"venue-guide-be/internal/controller"
	"venue-guide-be/internal/handler"
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/internal/repository/memory"
	"venue-guide-be/internal/service"
	"venue-guide-be/internal/websocket"
	"venue-guide-be/pkg/venue"

	pktNats "venue-guide-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const telemetryDurable = "venue-guide-telemetry"

type Container struct {
	// Controllers
	VenueController      controller.IVenueController
	NavigationController controller.INavigationController
	TelemetryController  controller.ITelemetryController
	AlertController      controller.IAlertController

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub

	// Background Services (Exposed for main.go to run)
	TelemetryService  service.ITelemetryService
	EventRelay        service.IEventRelay
	NavigationService service.INavigationService

	Graph  *venue.Graph
	Logger logger.ILogger

	pubSub       *gochannel.GoChannel
	telemetryBus *gochannel.GoChannel
	natsPub      *pktNats.Publisher
	natsSub      *pktNats.Subscriber
	rdb          *redis.Client
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	streamLogger := logger.NewIsolatedLogger(cfg.App.StreamLogFilePath)

	graph, err := LoadVenue(cfg.Venue.File, sysLogger)
	if err != nil {
		return nil, err
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	// telemetry gets its own bus: its publishers wait for the consumer, the
	// outbound relay must not
	telemetryBus := service.NewTelemetryBus(watermill.NewStdLogger(false, false))

	// 3. Infrastructure (optional: the engine runs without a bus or Redis)
	var bus service.BusPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
	} else {
		bus = natsPub
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	}

	rdb := newRedisClient(cfg.App.RedisURL, sysLogger)

	wsHub := websocket.NewHub(rdb, streamLogger)

	// 4. Repositories & Services
	sessionRepo := memory.NewSessionRepository(cfg.Nav.SessionIdleTTL)
	alertRepo := memory.NewAlertRepository()

	dispatcher := service.NewEventDispatcher(wsHub, pubSub, sysLogger)
	relay := service.NewEventRelay(pubSub, bus, sysLogger)
	emergencyService := service.NewEmergencyService(alertRepo, dispatcher, sysLogger)
	navigationService := service.NewNavigationService(
		graph,
		cfg.Nav.Params(),
		sessionRepo,
		dispatcher,
		emergencyService,
		nil,
		sysLogger,
	)
	telemetryService := service.NewTelemetryService(telemetryBus, telemetryBus, graph, sessionRepo, sysLogger)
	venueService := service.NewVenueService(graph)

	return &Container{
		VenueController:      controller.NewVenueController(venueService),
		NavigationController: controller.NewNavigationController(navigationService),
		TelemetryController:  controller.NewTelemetryController(telemetryService),
		AlertController:      controller.NewAlertController(emergencyService),

		StreamHandler: handler.NewStreamHandler(navigationService, wsHub, streamLogger),
		WebSocketHub:  wsHub,

		TelemetryService:  telemetryService,
		EventRelay:        relay,
		NavigationService: navigationService,

		Graph:  graph,
		Logger: sysLogger,

		pubSub:       pubSub,
		telemetryBus: telemetryBus,
		natsPub:      natsPub,
		natsSub:      natsSub,
		rdb:          rdb,
	}, nil
}

// Start launches the background workers: hub, relay, telemetry consumer and
// the NATS telemetry subscription.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.EventRelay.Run(ctx); err != nil {
		return fmt.Errorf("start event relay: %w", err)
	}
	if err := c.TelemetryService.Consume(ctx); err != nil {
		return fmt.Errorf("start telemetry consumer: %w", err)
	}

	if c.natsSub != nil {
		if err := c.natsSub.Subscribe(ctx, pktNats.SubjectCongestion, telemetryDurable, c.TelemetryService.HandleBusEvent); err != nil {
			c.Logger.Warn("Bootstrap", "NATS telemetry subscription failed, REST ingest only", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Close terminates sessions before tearing down transports so no event is
// published into a closed connection.
func (c *Container) Close() {
	c.NavigationService.Shutdown()

	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if err := c.telemetryBus.Close(); err != nil {
		c.Logger.Warn("Bootstrap", "Failed to close telemetry bus", map[string]interface{}{"error": err.Error()})
	}
	if err := c.pubSub.Close(); err != nil {
		c.Logger.Warn("Bootstrap", "Failed to close event bus", map[string]interface{}{"error": err.Error()})
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}

// LoadVenue reads the venue file, falling back to the built-in Kashi venue
// when the path is empty or the file is unusable.
func LoadVenue(path string, log logger.ILogger) (*venue.Graph, error) {
	if path != "" {
		def, err := venue.LoadDefinitionFile(path)
		if err == nil {
			var g *venue.Graph
			g, err = venue.New(def, venue.WithLogger(log))
			if err == nil {
				log.Info("Bootstrap", "Venue loaded", map[string]interface{}{"file": path, "name": g.Name()})
				return g, nil
			}
		}
		log.Error("Bootstrap", "Venue file unusable, falling back to built-in venue", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
	}

	g, err := venue.New(venue.KashiDefinition(), venue.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("built-in venue: %w", err)
	}
	return g, nil
}

func newRedisClient(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis, cross-instance streams disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
