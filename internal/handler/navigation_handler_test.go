package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/engine/surface"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/relay"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// instantRoutes answers every request synchronously with a single route.
type instantRoutes struct{}

func (instantRoutes) RequestRoutes(_ context.Context, req navigation.RouteRequest, cb navigation.RouteCallback) {
	cb.OnRoutesReady(navigation.RouteSet{{
		Distance: 4200,
		Duration: 600,
		Geometry: orb.LineString(req.Coordinates),
	}})
}

func (instantRoutes) CancelRequest(uint64) {}

type idleTrips struct{}

func (idleTrips) RegisterObserver(navigation.TripObserver)          {}
func (idleTrips) Start(context.Context, navigation.TripStart) error { return nil }
func (idleTrips) StartFreeDrive(context.Context) error              { return nil }
func (idleTrips) Stop()                                             {}

type testAPI struct {
	router *gin.Engine
	relay  *relay.Relay
	jwt    *auth.JWTManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	eventRelay := relay.New(log)
	controller := application.NewSessionController(
		navigation.DefaultRouteRequestOptions(),
		eventRelay,
		instantRoutes{},
		idleTrips{},
		surface.New(log),
		nil,
		log,
	)
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)

	router := gin.New()
	NewNavigationHandler(controller, eventRelay, log).RegisterRoutes(&router.RouterGroup, jwtManager)
	return &testAPI{router: router, relay: eventRelay, jwt: jwtManager}
}

func (a *testAPI) token(t *testing.T, role string) string {
	t.Helper()
	token, err := a.jwt.GenerateAccessToken(uuid.New(), role)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(t, role))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var routeBody = map[string]interface{}{
	"waypoints": []map[string]interface{}{
		{"latitude": 3.1390, "longitude": 101.6869, "name": "KLCC"},
		{"latitude": 3.1579, "longitude": 101.7116},
	},
	"options": map[string]interface{}{"mode": "driving", "simulateRoute": true},
}

func TestNavigationAPI_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/navigation", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/navigation/route", "customer", routeBody)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNavigationAPI_BuildRouteValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/navigation/route", auth.RoleDriver, map[string]interface{}{
		"waypoints": []map[string]interface{}{{"latitude": 1, "longitude": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode(t, w).Success)

	w = api.do(t, http.MethodPost, "/api/v1/navigation/route", auth.RoleDriver, map[string]interface{}{
		"waypoints": []map[string]interface{}{
			{"latitude": 91, "longitude": 1},
			{"latitude": 1, "longitude": 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNavigationAPI_SessionLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/navigation/route", auth.RoleDriver, routeBody)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"generation":1}`, string(decode(t, w).Data))

	w = api.do(t, http.MethodGet, "/api/v1/navigation", auth.RoleDriver, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap application.SessionSnapshot
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &snap))
	assert.Equal(t, "route_preview", snap.State)
	assert.Equal(t, 1, snap.RouteCount)
	assert.Len(t, snap.Waypoints, 2)
	assert.Equal(t, navigation.ModeDriving, snap.Options.Mode)

	w = api.do(t, http.MethodPost, "/api/v1/navigation/start", auth.RoleDriver, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"started":true}`, string(decode(t, w).Data))

	w = api.do(t, http.MethodGet, "/api/v1/navigation/distance-remaining", auth.RoleDriver, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"distanceRemaining":null}`, string(decode(t, w).Data))

	w = api.do(t, http.MethodPost, "/api/v1/navigation/telemetry", auth.RoleDriver, map[string]interface{}{
		"progress": map[string]interface{}{"distance": 1500.5, "duration": 240},
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/navigation/distance-remaining", auth.RoleDriver, nil)
	assert.JSONEq(t, `{"distanceRemaining":1500.5}`, string(decode(t, w).Data))
	w = api.do(t, http.MethodGet, "/api/v1/navigation/duration-remaining", auth.RoleDriver, nil)
	assert.JSONEq(t, `{"durationRemaining":240}`, string(decode(t, w).Data))

	w = api.do(t, http.MethodPost, "/api/v1/navigation/finish", auth.RoleDriver, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"finished":true}`, string(decode(t, w).Data))

	w = api.do(t, http.MethodPost, "/api/v1/navigation/start", auth.RoleDriver, nil)
	assert.JSONEq(t, `{"started":false}`, string(decode(t, w).Data))

	w = api.do(t, http.MethodDelete, "/api/v1/navigation/route", auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/navigation/free-drive", auth.RoleDriver, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNavigationAPI_BuildRouteReportsItsOwnGeneration(t *testing.T) {
	api := newTestAPI(t)

	for want := 1; want <= 3; want++ {
		w := api.do(t, http.MethodPost, "/api/v1/navigation/route", auth.RoleDriver, routeBody)
		require.Equal(t, http.StatusAccepted, w.Code)
		var data struct {
			Generation int `json:"generation"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
		assert.Equal(t, want, data.Generation)
	}
}

func TestNavigationAPI_StreamEvents(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/navigation/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+api.token(t, auth.RoleDriver))

	// Headers are only flushed with the first event.
	go func() {
		if assert.Eventually(t, api.relay.HasListener, 2*time.Second, 5*time.Millisecond) {
			api.relay.Emit(navigation.NewEvent(navigation.EventRouteBuilding))
		}
	}()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	readEvent := func() string {
		for lines.Scan() {
			if name, ok := strings.CutPrefix(lines.Text(), "event:"); ok {
				return name
			}
		}
		return ""
	}

	assert.Equal(t, "route_building", readEvent())

	// A new listener takes the slot and the stream is told so.
	api.relay.Listen(relay.ListenerFunc(func(navigation.Event) {}))
	assert.Equal(t, "replaced", readEvent())
}
