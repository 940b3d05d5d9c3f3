package navigation

import (
	"time"

	"github.com/google/uuid"
)

// Session is the live navigation state. It is not safe for concurrent use;
// the controller owning it serializes access.
type Session struct {
	id         uuid.UUID
	state      SessionState
	generation uint64
	cancelled  bool

	waypoints *WaypointSet
	options   RouteRequestOptions
	routes    RouteSet

	// Remaining values outlive the session that recorded them.
	distanceRemaining *float64
	durationRemaining *float64
	remainingGen      uint64
	lastLocation      *Location

	builtAt   *time.Time
	startedAt *time.Time
}

// NewSession creates an idle session with the given default options.
func NewSession(defaults RouteRequestOptions) *Session {
	return &Session{
		state:     StateIdle,
		waypoints: NewWaypointSet(),
		options:   defaults.Clone(),
	}
}

// --- Getters ---

// ID returns the identifier minted when the current routes were built, or
// uuid.Nil when no route set is held.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current state.
func (s *Session) State() SessionState { return s.state }

// Generation returns the tag of the most recent request.
func (s *Session) Generation() uint64 { return s.generation }

// IsCancelled reports whether the session was finished or cleared.
func (s *Session) IsCancelled() bool { return s.cancelled }

// Waypoints returns a copy of the waypoints of the last route request.
func (s *Session) Waypoints() []Waypoint { return s.waypoints.Waypoints() }

// Options returns a copy of the current options.
func (s *Session) Options() RouteRequestOptions { return s.options.Clone() }

// Routes returns the current route set, empty when none is held.
func (s *Session) Routes() RouteSet { return s.routes }

// HasRoutes reports whether a route set is held.
func (s *Session) HasRoutes() bool { return len(s.routes) > 0 }

// DistanceRemaining returns the last recorded distance, or nil before the
// first progress tick. Ending the session keeps the value.
func (s *Session) DistanceRemaining() *float64 { return copyFloat(s.distanceRemaining) }

// DurationRemaining returns the last recorded duration, or nil before the
// first progress tick. Ending the session keeps the value.
func (s *Session) DurationRemaining() *float64 { return copyFloat(s.durationRemaining) }

// CurrentRemaining returns the remaining values only when they were
// recorded by the current generation.
func (s *Session) CurrentRemaining() (distance, duration *float64) {
	if s.distanceRemaining == nil || s.remainingGen != s.generation {
		return nil, nil
	}
	return copyFloat(s.distanceRemaining), copyFloat(s.durationRemaining)
}

// LastLocation returns the last known location, or nil.
func (s *Session) LastLocation() *Location {
	if s.lastLocation == nil {
		return nil
	}
	loc := *s.lastLocation
	return &loc
}

// BuiltAt returns when the current routes arrived.
func (s *Session) BuiltAt() *time.Time { return s.builtAt }

// StartedAt returns when guidance started.
func (s *Session) StartedAt() *time.Time { return s.startedAt }

// --- Behavior ---

// RouteRequestPlan is the outcome of BeginRouteRequest.
type RouteRequestPlan struct {
	Request RouteRequest
	// Superseded is the generation of a request still in flight when the
	// new one began; zero when there was none.
	Superseded uint64
	// WasGuiding is true when the new request replaced an active guidance
	// session.
	WasGuiding bool
}

// BeginRouteRequest validates the waypoints, resets the session for a new
// attempt and returns the request to hand to the engine. On error the
// session is left untouched.
func (s *Session) BeginRouteRequest(waypoints []Waypoint, overrides Overrides) (RouteRequestPlan, error) {
	if len(waypoints) < MinWaypoints {
		return RouteRequestPlan{}, ErrInsufficientWaypoints
	}

	var plan RouteRequestPlan
	if s.state == StateRouteRequested {
		plan.Superseded = s.generation
	}
	plan.WasGuiding = s.state.IsGuiding()

	s.cancelled = false
	s.generation++
	s.waypoints.Clear()
	for _, w := range waypoints {
		s.waypoints.Add(w)
	}
	s.options.ApplyOverrides(overrides)
	s.clearRoutes()
	s.state = StateRouteRequested

	coords, _ := s.waypoints.Coordinates()
	indices, _ := s.waypoints.Indices()
	names, _ := s.waypoints.Names()
	plan.Request = RouteRequest{
		Generation:      s.generation,
		Coordinates:     coords,
		WaypointIndices: indices,
		WaypointNames:   names,
		Options:         s.options.Clone(),
	}
	return plan, nil
}

// CompleteRouteRequest stores routes for the request with generation gen.
// It returns false when the result is stale.
func (s *Session) CompleteRouteRequest(gen uint64, routes RouteSet) bool {
	if !s.isPending(gen) {
		return false
	}
	now := time.Now().UTC()
	s.routes = routes
	s.id = uuid.New()
	s.builtAt = &now
	s.state = StateRoutePreview
	return true
}

// FailRouteRequest returns the session to idle after a failed request. It
// returns false when the result is stale.
func (s *Session) FailRouteRequest(gen uint64) bool {
	if !s.isPending(gen) {
		return false
	}
	s.state = StateIdle
	return true
}

// CancelRouteRequest returns the session to idle when the cancelled request
// is the pending one. It returns false otherwise.
func (s *Session) CancelRouteRequest(gen uint64) bool {
	return s.FailRouteRequest(gen)
}

// StartGuidance applies overrides and, when a route set is held, moves to
// navigating. It returns false when there is nothing to navigate.
func (s *Session) StartGuidance(overrides Overrides) bool {
	s.options.ApplyOverrides(overrides)
	if !s.HasRoutes() || !s.state.CanTransitionTo(StateNavigating) {
		return false
	}
	if s.state != StateNavigating {
		now := time.Now().UTC()
		s.startedAt = &now
	}
	s.cancelled = false
	s.state = StateNavigating
	return true
}

// SessionEnd describes what End tore down.
type SessionEnd struct {
	HadRoutes   bool
	WasGuiding  bool
	WasArrived  bool
	PendingGen  uint64
	EndedTripID uuid.UUID
}

// End finishes the session: it sets the cancellation flag, invalidates every
// outstanding callback by bumping the generation and drops the route set.
// Calling it on an idle session is harmless.
func (s *Session) End() SessionEnd {
	end := SessionEnd{
		HadRoutes:   s.HasRoutes(),
		WasGuiding:  s.state == StateNavigating,
		WasArrived:  s.state == StateArrived,
		EndedTripID: s.id,
	}
	if s.state == StateRouteRequested {
		end.PendingGen = s.generation
	}

	s.cancelled = true
	s.generation++
	s.clearRoutes()
	s.state = StateIdle
	return end
}

// RecordProgress stores the tick when it belongs to the active guidance
// session. It returns false for ticks that must be dropped.
func (s *Session) RecordProgress(gen uint64, p RouteProgress) bool {
	if s.cancelled || gen != s.generation || s.state != StateNavigating {
		return false
	}
	s.recordRemaining(gen, p)
	if p.Location != nil {
		loc := *p.Location
		s.lastLocation = &loc
	}
	return true
}

// Arrive moves an active guidance session to arrived. The route set is
// kept so guidance can be resumed.
func (s *Session) Arrive(gen uint64, p RouteProgress) bool {
	if s.cancelled || gen != s.generation || s.state != StateNavigating {
		return false
	}
	s.recordRemaining(gen, p)
	s.state = StateArrived
	return true
}

// ReplaceRoutes swaps in a rerouted set during guidance.
func (s *Session) ReplaceRoutes(gen uint64, routes RouteSet) bool {
	if s.cancelled || gen != s.generation || !s.state.IsGuiding() || len(routes) == 0 {
		return false
	}
	s.routes = routes
	return true
}

// RecordLocation stores the last known location reported for generation
// gen. Locations of an earlier generation are dropped.
func (s *Session) RecordLocation(gen uint64, loc Location) bool {
	if gen != s.generation {
		return false
	}
	s.lastLocation = &loc
	return true
}

// IsGuiding reports whether gen is the live guidance session.
func (s *Session) IsGuiding(gen uint64) bool {
	return !s.cancelled && gen == s.generation && s.state.IsGuiding()
}

func (s *Session) isPending(gen uint64) bool {
	return gen == s.generation && s.state == StateRouteRequested
}

func (s *Session) clearRoutes() {
	s.routes = nil
	s.id = uuid.Nil
	s.builtAt = nil
	s.startedAt = nil
}

func (s *Session) recordRemaining(gen uint64, p RouteProgress) {
	dist, dur := p.DistanceRemaining, p.DurationRemaining
	s.distanceRemaining = &dist
	s.durationRemaining = &dur
	s.remainingGen = gen
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
