package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"venue-guide-be/pkg/navigation"
	"venue-guide-be/pkg/venue"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Venue     VenueConfig
	Nav       NavigationConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	StreamLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type VenueConfig struct {
	// File is a YAML or JSON venue definition. Empty means the built-in venue.
	File string
}

type NavigationConfig struct {
	TickInterval    time.Duration
	StepDistance    float64
	ArrivalEpsilon  float64
	ProximityRadius float64
	InsightTTL      time.Duration
	NoticeTTL       time.Duration
	StartX          float64
	StartY          float64
	SessionIdleTTL  time.Duration
}

type TelemetryConfig struct {
	OtelEnabled  bool
	OtelEndpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			StreamLogFilePath:  getEnv("STREAM_LOG_FILE_PATH", "logs/stream.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Venue: VenueConfig{
			File: getEnv("VENUE_FILE", ""),
		},
		Nav: NavigationConfig{
			TickInterval:    getEnvAsDuration("NAV_TICK_INTERVAL", 100*time.Millisecond),
			StepDistance:    getEnvAsFloat("NAV_STEP_DISTANCE", 2),
			ArrivalEpsilon:  getEnvAsFloat("NAV_ARRIVAL_EPSILON", 5),
			ProximityRadius: getEnvAsFloat("NAV_PROXIMITY_RADIUS", 40),
			InsightTTL:      getEnvAsDuration("NAV_INSIGHT_TTL", 8*time.Second),
			NoticeTTL:       getEnvAsDuration("NAV_NOTICE_TTL", 6*time.Second),
			StartX:          getEnvAsFloat("NAV_START_X", 60),
			StartY:          getEnvAsFloat("NAV_START_Y", 340),
			SessionIdleTTL:  getEnvAsDuration("NAV_SESSION_IDLE_TTL", 2*time.Hour),
		},
		Telemetry: TelemetryConfig{
			OtelEnabled:  getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Params converts the navigation settings into engine parameters.
func (n NavigationConfig) Params() navigation.Params {
	return navigation.Params{
		TickInterval:    n.TickInterval,
		StepDistance:    n.StepDistance,
		ArrivalEpsilon:  n.ArrivalEpsilon,
		ProximityRadius: n.ProximityRadius,
		InsightTTL:      n.InsightTTL,
		NoticeTTL:       n.NoticeTTL,
		StartPosition:   venue.Point{X: n.StartX, Y: n.StartY},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("250ms") or bare milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if ms := getEnvAsInt(key, -1); ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
