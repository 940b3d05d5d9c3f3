package application

import (
	"context"
	"sync"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/relay"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// SessionController coordinates the navigation session: it turns commands
// into engine requests and engine signals into relayed events.
//
// Two locks are used. cmdMu serializes commands, and engine collaborators are
// only called while holding cmdMu, so an engine that reports back
// synchronously cannot deadlock. mu guards the session and is held while
// events are emitted, which keeps every event for a superseded session
// ordered before the event that superseded it.
type SessionController struct {
	cmdMu sync.Mutex
	mu    sync.Mutex

	session  *navigation.Session
	relay    *relay.Relay
	routes   navigation.RouteService
	trips    navigation.TripSession
	surface  navigation.MapSurface
	recorder TripRecorder
	logger   *zap.Logger
}

// NewSessionController creates a SessionController. recorder may be nil.
func NewSessionController(
	defaults navigation.RouteRequestOptions,
	eventRelay *relay.Relay,
	routes navigation.RouteService,
	trips navigation.TripSession,
	surface navigation.MapSurface,
	recorder TripRecorder,
	logger *zap.Logger,
) *SessionController {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &SessionController{
		session:  navigation.NewSession(defaults),
		relay:    eventRelay,
		routes:   routes,
		trips:    trips,
		surface:  surface,
		recorder: recorder,
		logger:   logger,
	}
}

// --- Commands ---

// BuildRoute starts a new route request and returns the generation stamped
// on it. It fails synchronously with navigation.ErrInsufficientWaypoints when
// fewer than two waypoints are given; every other outcome arrives as an
// event carrying the same generation.
func (c *SessionController) BuildRoute(ctx context.Context, waypoints []navigation.Waypoint, overrides navigation.Overrides) (uint64, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	wasNavigating := c.session.State() == navigation.StateNavigating
	previous := c.tripRecordLocked(TripRecordCancelled)
	plan, err := c.session.BeginRouteRequest(waypoints, overrides)
	if err != nil {
		c.mu.Unlock()
		return 0, err
	}
	if plan.WasGuiding {
		c.surface.Clear()
	}
	c.emitPayloadLocked(navigation.EventRouteBuilding, routeRequestPayload{Generation: plan.Request.Generation})
	c.mu.Unlock()

	c.logger.Info("route requested",
		zap.Uint64("generation", plan.Request.Generation),
		zap.Int("waypoints", len(waypoints)),
		zap.String("mode", string(plan.Request.Options.Mode)),
	)

	if plan.WasGuiding {
		c.trips.Stop()
		if wasNavigating && previous.Kind != "" {
			c.recorder.Record(previous)
		}
	}
	if plan.Superseded != 0 {
		c.routes.CancelRequest(plan.Superseded)
	}

	gen := plan.Request.Generation
	c.routes.RequestRoutes(context.WithoutCancel(ctx), plan.Request, &routeCallback{controller: c, generation: gen})
	return gen, nil
}

// ClearRoute drops the current route and stops the trip session.
func (c *SessionController) ClearRoute(ctx context.Context) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	end := c.endSessionLocked()
	c.logger.Info("route cleared", zap.Bool("had_routes", end.HadRoutes))
}

// StartNavigation applies overrides and starts guidance along the current
// route set. It returns false, after emitting NavigationCancelled, when no
// route set is held.
func (c *SessionController) StartNavigation(ctx context.Context, overrides navigation.Overrides) bool {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	prevState := c.session.State()
	if !c.session.StartGuidance(overrides) {
		c.emitLocked(navigation.NewEvent(navigation.EventNavigationCancelled))
		c.mu.Unlock()
		c.logger.Info("navigation not started: no active route")
		return false
	}

	opts := c.session.Options()
	start := navigation.TripStart{
		Generation: c.session.Generation(),
		Routes:     c.session.Routes(),
		Options:    opts,
	}
	c.surface.ShowActiveGuidance(start.Routes, opts)
	c.emitPayloadLocked(navigation.EventNavigationRunning, navigationRunningPayload{
		SessionID:  c.session.ID().String(),
		Generation: start.Generation,
		Simulated:  opts.SimulateRoute,
	})
	record := c.tripRecordLocked(TripRecordStarted)
	c.mu.Unlock()

	if prevState == navigation.StateNavigating {
		return true
	}

	c.logger.Info("navigation started",
		zap.Uint64("generation", start.Generation),
		zap.Bool("simulated", opts.SimulateRoute),
	)
	if err := c.trips.Start(context.WithoutCancel(ctx), start); err != nil {
		c.logger.Error("failed to start trip session",
			zap.Uint64("generation", start.Generation),
			zap.Error(err),
		)
	}
	c.recorder.Record(record)
	return true
}

// FinishNavigation stops guidance and drops the route set. It reports
// whether a route set was held when it was called. Calling it while idle
// only re-emits NavigationCancelled.
func (c *SessionController) FinishNavigation(ctx context.Context) bool {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	end := c.endSessionLocked()
	c.logger.Info("navigation finished", zap.Bool("had_routes", end.HadRoutes))
	return end.HadRoutes
}

// StartFreeDrive hands the trip session over to free-drive tracking.
func (c *SessionController) StartFreeDrive(ctx context.Context) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.logger.Info("free drive requested")
	return c.trips.StartFreeDrive(context.WithoutCancel(ctx))
}

// Close stops the trip session.
func (c *SessionController) Close() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.trips.Stop()
}

// --- Queries ---

// DistanceRemaining returns the distance from the most recent progress tick,
// or nil before the first one.
func (c *SessionController) DistanceRemaining() *float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.DistanceRemaining()
}

// DurationRemaining returns the duration from the most recent progress tick,
// or nil before the first one.
func (c *SessionController) DurationRemaining() *float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.DurationRemaining()
}

// Generation returns the tag of the current request.
func (c *SessionController) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Generation()
}

// State returns the current session state.
func (c *SessionController) State() navigation.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State()
}

// Snapshot returns a read-only view of the session.
func (c *SessionController) Snapshot() SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	waypoints := s.Waypoints()
	dtos := make([]navigation.WaypointDTO, len(waypoints))
	for i, w := range waypoints {
		dtos[i] = w.DTO()
	}

	snap := SessionSnapshot{
		State:             s.State().String(),
		Generation:        s.Generation(),
		Cancelled:         s.IsCancelled(),
		Waypoints:         dtos,
		Options:           s.Options(),
		RouteCount:        len(s.Routes()),
		DistanceRemaining: s.DistanceRemaining(),
		DurationRemaining: s.DurationRemaining(),
		LastLocation:      s.LastLocation(),
	}
	if s.ID() != uuid.Nil {
		snap.SessionID = s.ID().String()
	}
	return snap
}

// --- Route request outcomes ---

// routeCallback binds engine results to the generation that requested them.
type routeCallback struct {
	controller *SessionController
	generation uint64
}

func (cb *routeCallback) OnRoutesReady(routes navigation.RouteSet) {
	cb.controller.onRoutesReady(cb.generation, routes)
}

func (cb *routeCallback) OnFailure(reasons []navigation.RouterFailure) {
	cb.controller.onRouteFailure(cb.generation, reasons)
}

func (cb *routeCallback) OnCanceled() {
	cb.controller.onRouteCanceled(cb.generation)
}

func (c *SessionController) onRoutesReady(gen uint64, routes navigation.RouteSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.CompleteRouteRequest(gen, routes) {
		c.logger.Debug("dropping stale route result", zap.Uint64("generation", gen))
		return
	}

	c.logger.Info("route built",
		zap.Uint64("generation", gen),
		zap.Int("routes", len(routes)),
		zap.String("session_id", c.session.ID().String()),
	)
	fc := routes.FeatureCollection()
	fc.ExtraMembers = geojson.Properties{"generation": gen}
	c.emitPayloadLocked(navigation.EventRouteBuilt, fc)
	c.surface.PreviewRoutes(routes, c.session.Options())
}

func (c *SessionController) onRouteFailure(gen uint64, reasons []navigation.RouterFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.FailRouteRequest(gen) {
		c.logger.Debug("dropping stale route failure", zap.Uint64("generation", gen))
		return
	}

	c.logger.Warn("route build failed",
		zap.Uint64("generation", gen),
		zap.Int("reasons", len(reasons)),
	)
	if reasons == nil {
		reasons = []navigation.RouterFailure{}
	}
	c.emitPayloadLocked(navigation.EventRouteBuildFailed, routeFailedPayload{Generation: gen, Reasons: reasons})
}

// onRouteCanceled relays every cancellation, including those of superseded
// requests, so each request still ends with exactly one outcome event. Only
// the pending request moves the session back to idle.
func (c *SessionController) onRouteCanceled(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.session.CancelRouteRequest(gen)
	c.logger.Info("route request cancelled",
		zap.Uint64("generation", gen),
		zap.Bool("current", current),
	)
	c.emitPayloadLocked(navigation.EventRouteBuildCancelled, routeRequestPayload{Generation: gen})
}

// --- navigation.TripObserver ---

// OnRouteProgress records and relays a progress tick of the active session.
// Ticks from a finished or superseded session are dropped.
func (c *SessionController) OnRouteProgress(gen uint64, progress navigation.RouteProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.RecordProgress(gen, progress) {
		return
	}
	c.emitPayloadLocked(navigation.EventRouteProgress, progress)
}

// OnFinalDestinationArrival moves the session to arrived. The route set is
// kept.
func (c *SessionController) OnFinalDestinationArrival(gen uint64, progress navigation.RouteProgress) {
	c.mu.Lock()
	if !c.session.Arrive(gen, progress) {
		c.mu.Unlock()
		c.logger.Debug("dropping stale arrival", zap.Uint64("generation", gen))
		return
	}
	c.emitLocked(navigation.NewEvent(navigation.EventOnArrival))
	record := c.tripRecordLocked(TripRecordArrived)
	c.mu.Unlock()

	c.logger.Info("arrived at final destination", zap.Uint64("generation", gen))
	c.recorder.Record(record)
}

// OnOffRouteStateChanged relays UserOffRoute when the user leaves the route.
func (c *SessionController) OnOffRouteStateChanged(offRoute bool) {
	if !offRoute {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitLocked(navigation.NewEvent(navigation.EventUserOffRoute))
}

// OnRoutesChanged relays RerouteAlong for a non-empty route set and adopts
// the new routes while guiding the matching session.
func (c *SessionController) OnRoutesChanged(gen uint64, routes navigation.RouteSet) {
	if len(routes) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.ReplaceRoutes(gen, routes) {
		c.surface.ShowActiveGuidance(routes, c.session.Options())
	}
	c.emitPayloadLocked(navigation.EventRerouteAlong, routes.FeatureCollection())
}

// OnBannerInstruction relays the primary banner text of the live guidance
// session.
func (c *SessionController) OnBannerInstruction(gen uint64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.IsGuiding(gen) {
		return
	}
	c.emitPayloadLocked(navigation.EventBannerInstruction, text)
}

// OnVoiceInstruction relays a spoken announcement of the live guidance
// session.
func (c *SessionController) OnVoiceInstruction(gen uint64, announcement string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.IsGuiding(gen) {
		return
	}
	c.emitPayloadLocked(navigation.EventSpeechAnnouncement, announcement)
}

// OnLocationChanged records the last known location.
func (c *SessionController) OnLocationChanged(gen uint64, location navigation.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.RecordLocation(gen, location)
}

// --- Helpers ---

type navigationRunningPayload struct {
	SessionID  string `json:"sessionId"`
	Generation uint64 `json:"generation"`
	Simulated  bool   `json:"simulated"`
}

type routeRequestPayload struct {
	Generation uint64 `json:"generation"`
}

type routeFailedPayload struct {
	Generation uint64                     `json:"generation"`
	Reasons    []navigation.RouterFailure `json:"reasons"`
}

// endSessionLocked tears the session down. cmdMu must be held.
func (c *SessionController) endSessionLocked() navigation.SessionEnd {
	c.mu.Lock()
	record := c.tripRecordLocked(TripRecordCancelled)
	end := c.session.End()
	c.surface.Clear()
	c.emitLocked(navigation.NewEvent(navigation.EventNavigationCancelled))
	c.mu.Unlock()

	c.trips.Stop()
	if end.PendingGen != 0 {
		c.routes.CancelRequest(end.PendingGen)
	}
	if end.WasGuiding && record.Kind != "" {
		c.recorder.Record(record)
	}
	return end
}

func (c *SessionController) emitLocked(evt navigation.Event) {
	c.relay.Emit(evt)
}

func (c *SessionController) emitPayloadLocked(name navigation.EventName, payload interface{}) {
	evt, err := navigation.NewEventWithPayload(name, payload)
	if err != nil {
		c.logger.Error("failed to encode event payload",
			zap.String("event", name.String()),
			zap.Error(err),
		)
	}
	c.relay.Emit(evt)
}

// tripRecordLocked snapshots the session for the trip journal. It returns a
// zero record when no route set is held.
func (c *SessionController) tripRecordLocked(kind TripRecordKind) TripRecord {
	s := c.session
	if !s.HasRoutes() {
		return TripRecord{}
	}

	waypoints := s.Waypoints()
	dtos := make([]navigation.WaypointDTO, len(waypoints))
	for i, w := range waypoints {
		dtos[i] = w.DTO()
	}
	primary, _ := s.Routes().Primary()
	opts := s.Options()
	distance, duration := s.CurrentRemaining()

	return TripRecord{
		Kind:              kind,
		TripID:            s.ID(),
		Generation:        s.Generation(),
		Mode:              opts.Mode,
		Waypoints:         dtos,
		RouteDistance:     primary.Distance,
		RouteDuration:     primary.Duration,
		DistanceRemaining: distance,
		DurationRemaining: duration,
		Simulated:         opts.SimulateRoute,
		OccurredAt:        time.Now().UTC(),
	}
}

// ApplyTelemetry feeds device-reported signals through the same paths the
// trip session uses. A progress tick flagged as arrived is an arrival.
func (c *SessionController) ApplyTelemetry(req TelemetryRequest) {
	gen := c.Generation()
	if req.Generation != nil {
		gen = *req.Generation
	}

	if req.Location != nil {
		c.OnLocationChanged(gen, *req.Location)
	}
	if req.OffRoute != nil {
		c.OnOffRouteStateChanged(*req.OffRoute)
	}
	if req.Banner != "" {
		c.OnBannerInstruction(gen, req.Banner)
	}
	if req.Voice != "" {
		c.OnVoiceInstruction(gen, req.Voice)
	}
	if len(req.Rerouted) > 0 {
		c.OnRoutesChanged(gen, req.Rerouted)
	}
	if req.Progress != nil {
		if req.Progress.Arrived {
			c.OnFinalDestinationArrival(gen, *req.Progress)
		} else {
			c.OnRouteProgress(gen, *req.Progress)
		}
	}
}
