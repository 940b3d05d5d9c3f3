package handler

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/response"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/relay"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	eventStreamBuffer    = 256
	eventStreamKeepAlive = 15 * time.Second
)

// NavigationHandler handles HTTP requests for the navigation session.
type NavigationHandler struct {
	controller *application.SessionController
	relay      *relay.Relay
	logger     *zap.Logger
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(controller *application.SessionController, eventRelay *relay.Relay, logger *zap.Logger) *NavigationHandler {
	return &NavigationHandler{controller: controller, relay: eventRelay, logger: logger}
}

// RegisterRoutes registers all navigation routes on the given router group.
func (h *NavigationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	driverRole := middleware.RequireRole(auth.RoleDriver, auth.RoleAdmin)

	nav := r.Group("/api/v1/navigation")
	nav.Use(authMW)
	{
		nav.GET("", h.GetSession)
		nav.GET("/distance-remaining", h.GetDistanceRemaining)
		nav.GET("/duration-remaining", h.GetDurationRemaining)
		nav.GET("/events", h.StreamEvents)

		nav.POST("/route", driverRole, h.BuildRoute)
		nav.DELETE("/route", driverRole, h.ClearRoute)
		nav.POST("/start", driverRole, h.StartNavigation)
		nav.POST("/finish", driverRole, h.FinishNavigation)
		nav.POST("/free-drive", driverRole, h.StartFreeDrive)
		nav.POST("/telemetry", driverRole, h.Telemetry)
	}
}

// BuildRoute handles POST /api/v1/navigation/route.
func (h *NavigationHandler) BuildRoute(c *gin.Context) {
	var req application.BuildRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	waypoints, overrides, err := req.Parse()
	if err != nil {
		response.Error(c, err)
		return
	}

	gen, err := h.controller.BuildRoute(c.Request.Context(), waypoints, overrides)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, gin.H{"generation": gen})
}

// ClearRoute handles DELETE /api/v1/navigation/route.
func (h *NavigationHandler) ClearRoute(c *gin.Context) {
	h.controller.ClearRoute(c.Request.Context())
	response.Success(c, gin.H{"cleared": true})
}

// StartNavigation handles POST /api/v1/navigation/start. The body is optional.
func (h *NavigationHandler) StartNavigation(c *gin.Context) {
	var req application.StartNavigationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(c, err.Error())
			return
		}
	}

	started := h.controller.StartNavigation(c.Request.Context(), req.Overrides())
	response.Success(c, gin.H{"started": started})
}

// FinishNavigation handles POST /api/v1/navigation/finish.
func (h *NavigationHandler) FinishNavigation(c *gin.Context) {
	hadRoute := h.controller.FinishNavigation(c.Request.Context())
	response.Success(c, gin.H{"finished": hadRoute})
}

// StartFreeDrive handles POST /api/v1/navigation/free-drive.
func (h *NavigationHandler) StartFreeDrive(c *gin.Context) {
	if err := h.controller.StartFreeDrive(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"freeDrive": true})
}

// GetDistanceRemaining handles GET /api/v1/navigation/distance-remaining.
func (h *NavigationHandler) GetDistanceRemaining(c *gin.Context) {
	response.Success(c, gin.H{"distanceRemaining": h.controller.DistanceRemaining()})
}

// GetDurationRemaining handles GET /api/v1/navigation/duration-remaining.
func (h *NavigationHandler) GetDurationRemaining(c *gin.Context) {
	response.Success(c, gin.H{"durationRemaining": h.controller.DurationRemaining()})
}

// GetSession handles GET /api/v1/navigation.
func (h *NavigationHandler) GetSession(c *gin.Context) {
	response.Success(c, h.controller.Snapshot())
}

// Telemetry handles POST /api/v1/navigation/telemetry.
func (h *NavigationHandler) Telemetry(c *gin.Context) {
	var req application.TelemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	h.controller.ApplyTelemetry(req)
	response.Accepted(c, gin.H{"accepted": true})
}

// StreamEvents handles GET /api/v1/navigation/events. The stream becomes
// the relay's single listener, replacing any earlier stream.
func (h *NavigationHandler) StreamEvents(c *gin.Context) {
	stream := newEventStream(eventStreamBuffer, h.logger)
	unregister := h.relay.Listen(stream)
	defer unregister()

	userID, _ := middleware.GetUserID(c)
	h.logger.Info("event stream connected",
		zap.String("user_id", userID.String()),
		zap.String("remote", c.ClientIP()),
	)

	keepAlive := time.NewTicker(eventStreamKeepAlive)
	defer keepAlive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-stream.detached:
			c.SSEvent("replaced", gin.H{"reason": "another listener registered"})
			return false
		case evt := <-stream.events:
			c.SSEvent(evt.Name.String(), evt)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		}
	})

	h.logger.Info("event stream disconnected", zap.String("remote", c.ClientIP()))
}

// eventStream buffers relayed events for one SSE client. OnEvent never
// blocks; events beyond the buffer are dropped.
type eventStream struct {
	events   chan navigation.Event
	detached chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

func newEventStream(size int, logger *zap.Logger) *eventStream {
	return &eventStream{
		events:   make(chan navigation.Event, size),
		detached: make(chan struct{}),
		logger:   logger,
	}
}

func (s *eventStream) OnEvent(evt navigation.Event) {
	select {
	case s.events <- evt:
	default:
		s.logger.Warn("event stream buffer full, dropping event",
			zap.String("event", evt.Name.String()),
		)
	}
}

func (s *eventStream) OnDetach() {
	s.once.Do(func() { close(s.detached) })
}
