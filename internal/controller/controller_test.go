package controller_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"venue-guide-be/internal/config"
	"venue-guide-be/internal/controller"
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/internal/repository/memory"
	"venue-guide-be/internal/server"
	"venue-guide-be/internal/service"
	"venue-guide-be/pkg/navigation"
	"venue-guide-be/pkg/venue"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool              `json:"success"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testAPI struct {
	app   *fiber.App
	graph *venue.Graph
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	graph, err := venue.New(venue.KashiDefinition())
	require.NoError(t, err)

	log := logger.NewNopLogger()
	params := navigation.DefaultParams()
	params.TickInterval = time.Hour

	sessions := memory.NewSessionRepository(time.Hour)
	dispatcher := service.NewEventDispatcher(nil, nil, log)
	emergency := service.NewEmergencyService(memory.NewAlertRepository(), dispatcher, log)
	navigationService := service.NewNavigationService(graph, params, sessions, dispatcher, emergency, nil, log)
	t.Cleanup(navigationService.Shutdown)

	pubSub := service.NewTelemetryBus(watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	telemetry := service.NewTelemetryService(pubSub, pubSub, graph, sessions, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, telemetry.Consume(ctx))

	app := server.NewApp(&config.Config{App: config.AppConfig{CorsAllowedOrigins: "*"}})
	api := app.Group("/api")
	controller.NewVenueController(service.NewVenueService(graph)).RegisterRoutes(api)
	controller.NewNavigationController(navigationService).RegisterRoutes(api)
	controller.NewAlertController(emergency).RegisterRoutes(api)
	controller.NewTelemetryController(telemetry).RegisterRoutes(api)

	return &testAPI{app: app, graph: graph}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestVenueRoutes(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		check      func(t *testing.T, data json.RawMessage)
	}{
		{
			name:       "venue",
			path:       "/api/venue",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage) {
				var v struct {
					Name      string           `json:"name"`
					Waypoints []venue.Waypoint `json:"waypoints"`
				}
				require.NoError(t, json.Unmarshal(data, &v))
				assert.Equal(t, "Kashi Vishwanath", v.Name)
				assert.Len(t, v.Waypoints, 15)
			},
		},
		{
			name:       "filter by category",
			path:       "/api/venue/waypoints?category=heritage",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage) {
				var ws []venue.Waypoint
				require.NoError(t, json.Unmarshal(data, &ws))
				assert.Len(t, ws, 3)
			},
		},
		{
			name:       "unknown category",
			path:       "/api/venue/waypoints?category=arcade",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "single waypoint",
			path:       "/api/venue/waypoints/sos-1",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage) {
				var w venue.Waypoint
				require.NoError(t, json.Unmarshal(data, &w))
				assert.Equal(t, venue.CategoryEmergency, w.Category)
			},
		},
		{
			name:       "missing waypoint",
			path:       "/api/venue/waypoints/gate-404",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "near",
			path:       "/api/venue/near?x=150&y=170&radius=40",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage) {
				var ws []struct {
					ID       string  `json:"id"`
					Distance float64 `json:"distance"`
				}
				require.NoError(t, json.Unmarshal(data, &ws))
				require.NotEmpty(t, ws)
				assert.Equal(t, "heritage-1", ws[0].ID)
				assert.InDelta(t, 20, ws[0].Distance, 1e-9)
			},
		},
		{
			name:       "near needs a radius",
			path:       "/api/venue/near?x=1&y=1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "heatmap",
			path:       "/api/venue/heatmap",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage) {
				var h struct {
					Count int `json:"count"`
				}
				require.NoError(t, json.Unmarshal(data, &h))
				assert.Equal(t, 3, h.Count)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := api.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantStatus == http.StatusOK, env.Success)
			if tt.check != nil {
				tt.check(t, env.Data)
			}
		})
	}
}

func TestNavigationRoutes(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, http.MethodPost, "/api/navigation/v1/sessions", `{"entity_id":"pilgrim-1","assigned_gate":"gate-2"}`)
	require.Equal(t, http.StatusCreated, status, env.Message)

	var created navigation.Status
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, navigation.StateNavigating, created.State)
	// security starts congested, so the session is rerouted straight away
	assert.True(t, created.Rerouted)
	assert.Equal(t, []string{"gate-2", "waiting", "sanctum"}, created.Route.Waypoints)

	base := "/api/navigation/v1/sessions/" + created.SessionID

	status, _ = api.do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusOK, status)

	status, env = api.do(t, http.MethodPost, base+"/sos", `{"action":"activate"}`)
	require.Equal(t, http.StatusOK, status)
	var sos struct {
		navigation.Status
		AlertID string `json:"alert_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sos))
	assert.Equal(t, navigation.ModeEmergency, sos.Mode)
	assert.NotEmpty(t, sos.AlertID)

	status, _ = api.do(t, http.MethodPatch, "/api/alerts/"+sos.AlertID, `{"status":"EN_ROUTE"}`)
	assert.Equal(t, http.StatusOK, status)

	status, env = api.do(t, http.MethodPost, base+"/sos", `{"action":"clear"}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sos))
	assert.Equal(t, navigation.ModeNormal, sos.Mode)
	assert.Equal(t, []string{"gate-2", "waiting", "sanctum"}, sos.Route.Waypoints)

	status, _ = api.do(t, http.MethodPatch, "/api/alerts/"+sos.AlertID, `{"status":"EN_ROUTE"}`)
	assert.Equal(t, http.StatusConflict, status, "resolved alerts cannot be reopened")

	status, env = api.do(t, http.MethodPost, base+"/insight/dismiss", "")
	assert.Equal(t, http.StatusOK, status, env.Message)

	status, _ = api.do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNavigationValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name      string
		path      string
		body      string
		wantField string
	}{
		{name: "gate required", path: "/api/navigation/v1/sessions", body: `{}`, wantField: "assigned_gate"},
		{name: "start needs both coordinates", path: "/api/navigation/v1/sessions", body: `{"assigned_gate":"gate-2","start_x":5}`, wantField: "start_y"},
		{name: "sos action", path: "/api/navigation/v1/sessions/x/sos", body: `{"action":"panic"}`, wantField: "action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := api.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, env.Errors, tt.wantField)
		})
	}

	status, _ := api.do(t, http.MethodPost, "/api/navigation/v1/sessions", `{"assigned_gate":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPost, "/api/navigation/v1/sessions/missing/sos", `{"action":"activate"}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTelemetryRoute(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, http.MethodPost, "/api/telemetry/v1/congestion", `{"levels":{"gate-2":"high","gate-1":"low"}}`)
	require.Equal(t, http.StatusAccepted, status, env.Message)

	var res struct {
		Accepted bool `json:"accepted"`
		Readings int  `json:"readings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Accepted)
	assert.Equal(t, 2, res.Readings)

	assert.Eventually(t, func() bool {
		w, _ := api.graph.Get("gate-2")
		return w.Congestion == venue.CongestionHigh
	}, 2*time.Second, 10*time.Millisecond)

	status, env = api.do(t, http.MethodPost, "/api/telemetry/v1/congestion", `{"levels":{}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "levels")
}
