package navigation

import (
	"context"

	"github.com/paulmach/orb"
)

// RouteRequest is what the route-computation service receives. Generation
// identifies the request so results can be matched to the session that
// asked for them.
type RouteRequest struct {
	Generation      uint64
	Coordinates     []orb.Point
	WaypointIndices []*int
	WaypointNames   []*string
	Options         RouteRequestOptions
}

// RouterFailure is an opaque reason reported by the engine.
type RouterFailure struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// RouteCallback receives exactly one outcome per route request. It may be
// invoked from any goroutine.
type RouteCallback interface {
	OnRoutesReady(routes RouteSet)
	OnFailure(reasons []RouterFailure)
	OnCanceled()
}

// RouteService computes routes asynchronously. RequestRoutes must not block
// on the computation itself.
type RouteService interface {
	RequestRoutes(ctx context.Context, req RouteRequest, cb RouteCallback)
	// CancelRequest asks the engine to abandon the request with the given
	// generation. The engine reports the outcome through the callback.
	CancelRequest(generation uint64)
}

// TripStart describes an active-guidance session handed to the tracker.
type TripStart struct {
	Generation uint64
	Routes     RouteSet
	Options    RouteRequestOptions
}

// TripObserver receives trip-session signals, one method per signal kind.
// Signals tied to a guidance session carry its generation.
type TripObserver interface {
	OnRouteProgress(generation uint64, progress RouteProgress)
	OnFinalDestinationArrival(generation uint64, progress RouteProgress)
	OnOffRouteStateChanged(offRoute bool)
	OnRoutesChanged(generation uint64, routes RouteSet)
	OnBannerInstruction(generation uint64, text string)
	OnVoiceInstruction(generation uint64, announcement string)
	OnLocationChanged(generation uint64, location Location)
}

// TripSession tracks the journey and reports to its registered observer.
type TripSession interface {
	RegisterObserver(observer TripObserver)
	Start(ctx context.Context, start TripStart) error
	StartFreeDrive(ctx context.Context) error
	Stop()
}

// MapSurface renders routes. Calls are fire-and-forget.
type MapSurface interface {
	PreviewRoutes(routes RouteSet, opts RouteRequestOptions)
	ShowActiveGuidance(routes RouteSet, opts RouteRequestOptions)
	Clear()
}
