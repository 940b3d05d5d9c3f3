package navigation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoWaypoints(t *testing.T) []Waypoint {
	return []Waypoint{mustWaypoint(t, 3.1, 101.6, false), mustWaypoint(t, 3.2, 101.7, false)}
}

func sampleRoutes() RouteSet {
	return RouteSet{{
		Distance: 1200,
		Duration: 300,
		Geometry: orb.LineString{{101.6, 3.1}, {101.7, 3.2}},
	}}
}

func TestSession_BeginRouteRequest_RejectsShortSetWithoutSideEffects(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())

	_, err := s.BeginRouteRequest([]Waypoint{mustWaypoint(t, 1, 1, false)}, Overrides{})
	assert.ErrorIs(t, err, ErrInsufficientWaypoints)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, uint64(0), s.Generation())
	assert.Empty(t, s.Waypoints())
}

func TestSession_BeginRouteRequest_BuildsRequest(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	mode := ModeWalking

	plan, err := s.BeginRouteRequest(twoWaypoints(t), Overrides{Mode: &mode})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), plan.Request.Generation)
	assert.Equal(t, uint64(0), plan.Superseded)
	assert.False(t, plan.WasGuiding)
	assert.Len(t, plan.Request.Coordinates, 2)
	assert.Len(t, plan.Request.WaypointIndices, 2)
	assert.Equal(t, ModeWalking, plan.Request.Options.Mode)
	assert.Equal(t, StateRouteRequested, s.State())
	assert.False(t, s.IsCancelled())
}

func TestSession_SecondRequestSupersedesFirst(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	first, err := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	require.NoError(t, err)

	second, err := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, first.Request.Generation, second.Superseded)

	assert.False(t, s.CompleteRouteRequest(first.Request.Generation, sampleRoutes()))
	assert.False(t, s.HasRoutes())
	assert.True(t, s.CompleteRouteRequest(second.Request.Generation, sampleRoutes()))
	assert.True(t, s.HasRoutes())
	assert.NotEqual(t, uuid.Nil, s.ID())
	assert.NotNil(t, s.BuiltAt())
	assert.Equal(t, StateRoutePreview, s.State())
}

func TestSession_FailAndCancelOnlyAffectPendingRequest(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	plan, _ := s.BeginRouteRequest(twoWaypoints(t), Overrides{})

	assert.False(t, s.FailRouteRequest(plan.Request.Generation+1))
	assert.Equal(t, StateRouteRequested, s.State())

	assert.True(t, s.CancelRouteRequest(plan.Request.Generation))
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.FailRouteRequest(plan.Request.Generation))
}

func TestSession_StartGuidance(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	simulate := true

	assert.False(t, s.StartGuidance(Overrides{SimulateRoute: &simulate}))
	// Overrides apply even when there is nothing to navigate.
	assert.True(t, s.Options().SimulateRoute)

	plan, _ := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	assert.False(t, s.StartGuidance(Overrides{}))
	s.CompleteRouteRequest(plan.Request.Generation, sampleRoutes())

	assert.True(t, s.StartGuidance(Overrides{}))
	assert.Equal(t, StateNavigating, s.State())
	assert.NotNil(t, s.StartedAt())
}

func TestSession_EmptyRouteSetIsNotNavigable(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	plan, _ := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	require.True(t, s.CompleteRouteRequest(plan.Request.Generation, RouteSet{}))

	assert.False(t, s.HasRoutes())
	assert.False(t, s.StartGuidance(Overrides{}))
}

func TestSession_ProgressAndArrival(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	plan, _ := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	gen := plan.Request.Generation
	s.CompleteRouteRequest(gen, sampleRoutes())

	// No progress before guidance starts.
	assert.False(t, s.RecordProgress(gen, RouteProgress{DistanceRemaining: 10}))
	assert.Nil(t, s.DistanceRemaining())

	require.True(t, s.StartGuidance(Overrides{}))
	assert.False(t, s.RecordProgress(gen+1, RouteProgress{DistanceRemaining: 10}))
	assert.True(t, s.RecordProgress(gen, RouteProgress{DistanceRemaining: 800, DurationRemaining: 200}))
	require.NotNil(t, s.DistanceRemaining())
	assert.Equal(t, 800.0, *s.DistanceRemaining())
	assert.Equal(t, 200.0, *s.DurationRemaining())

	assert.True(t, s.Arrive(gen, RouteProgress{}))
	assert.Equal(t, StateArrived, s.State())
	assert.True(t, s.HasRoutes())
	assert.Equal(t, 0.0, *s.DistanceRemaining())
	dist, _ := s.CurrentRemaining()
	require.NotNil(t, dist)
	assert.Equal(t, 0.0, *dist)
}

func TestSession_RemainingValuesSurviveNewRequest(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	plan, _ := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	gen := plan.Request.Generation
	s.CompleteRouteRequest(gen, sampleRoutes())
	s.StartGuidance(Overrides{})
	require.True(t, s.RecordProgress(gen, RouteProgress{DistanceRemaining: 300, DurationRemaining: 60}))

	next, err := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 300.0, *s.DistanceRemaining())
	assert.Equal(t, 60.0, *s.DurationRemaining())

	s.CompleteRouteRequest(next.Request.Generation, sampleRoutes())
	s.StartGuidance(Overrides{})
	dist, dur := s.CurrentRemaining()
	assert.Nil(t, dist, "a new trip has not recorded progress yet")
	assert.Nil(t, dur)
}

func TestSession_EndInvalidatesEverything(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	plan, _ := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	gen := plan.Request.Generation
	s.CompleteRouteRequest(gen, sampleRoutes())
	s.StartGuidance(Overrides{})
	s.RecordProgress(gen, RouteProgress{DistanceRemaining: 5})
	id := s.ID()

	end := s.End()
	assert.True(t, end.HadRoutes)
	assert.True(t, end.WasGuiding)
	assert.Equal(t, id, end.EndedTripID)
	assert.Equal(t, uint64(0), end.PendingGen)

	assert.True(t, s.IsCancelled())
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.HasRoutes())
	assert.False(t, s.RecordProgress(gen, RouteProgress{DistanceRemaining: 1}))

	// The last tick survives the end; the dropped tick does not overwrite it.
	require.NotNil(t, s.DistanceRemaining())
	assert.Equal(t, 5.0, *s.DistanceRemaining())
	dist, dur := s.CurrentRemaining()
	assert.Nil(t, dist)
	assert.Nil(t, dur)

	again := s.End()
	assert.False(t, again.HadRoutes)
}

func TestSession_EndReportsPendingRequest(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	plan, _ := s.BeginRouteRequest(twoWaypoints(t), Overrides{})

	end := s.End()
	assert.Equal(t, plan.Request.Generation, end.PendingGen)
	assert.False(t, s.CompleteRouteRequest(plan.Request.Generation, sampleRoutes()))
}

func TestSession_NewRequestClearsCancellation(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	s.End()
	require.True(t, s.IsCancelled())

	_, err := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	require.NoError(t, err)
	assert.False(t, s.IsCancelled())
}

func TestSession_ReplaceRoutesOnlyWhileGuiding(t *testing.T) {
	s := NewSession(DefaultRouteRequestOptions())
	plan, _ := s.BeginRouteRequest(twoWaypoints(t), Overrides{})
	gen := plan.Request.Generation
	s.CompleteRouteRequest(gen, sampleRoutes())

	rerouted := RouteSet{{Distance: 999}, {Distance: 1001}}
	assert.False(t, s.ReplaceRoutes(gen, rerouted))

	s.StartGuidance(Overrides{})
	assert.True(t, s.ReplaceRoutes(gen, rerouted))
	assert.Len(t, s.Routes(), 2)
	assert.False(t, s.ReplaceRoutes(gen, RouteSet{}))
}
