package navigation

import (
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/domain"
	"github.com/google/uuid"
)

// Trip is the persisted record of one guidance session.
type Trip struct {
	id         uuid.UUID
	generation uint64
	status     TripStatus
	mode       TravelMode
	waypoints  []WaypointDTO
	simulated  bool

	routeDistance float64
	routeDuration float64

	distanceRemaining *float64
	durationRemaining *float64

	startedAt time.Time
	endedAt   *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewTrip creates an active trip for the session with the given ID.
func NewTrip(
	id uuid.UUID,
	generation uint64,
	mode TravelMode,
	waypoints []WaypointDTO,
	routeDistance float64,
	routeDuration float64,
	simulated bool,
	startedAt time.Time,
) (*Trip, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("trip ID is required")
	}
	if len(waypoints) < MinWaypoints {
		return nil, domain.NewValidationError("trip needs at least 2 waypoints")
	}
	if !mode.IsValid() {
		return nil, domain.NewValidationError("invalid travel mode: " + string(mode))
	}

	now := time.Now().UTC()
	return &Trip{
		id:            id,
		generation:    generation,
		status:        TripStatusActive,
		mode:          mode,
		waypoints:     waypoints,
		simulated:     simulated,
		routeDistance: routeDistance,
		routeDuration: routeDuration,
		startedAt:     startedAt.UTC(),
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructTrip rebuilds a Trip from persistence data (no validation).
func ReconstructTrip(
	id uuid.UUID,
	generation uint64,
	status TripStatus,
	mode TravelMode,
	waypoints []WaypointDTO,
	simulated bool,
	routeDistance float64,
	routeDuration float64,
	distanceRemaining *float64,
	durationRemaining *float64,
	startedAt time.Time,
	endedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Trip {
	return &Trip{
		id:                id,
		generation:        generation,
		status:            status,
		mode:              mode,
		waypoints:         waypoints,
		simulated:         simulated,
		routeDistance:     routeDistance,
		routeDuration:     routeDuration,
		distanceRemaining: distanceRemaining,
		durationRemaining: durationRemaining,
		startedAt:         startedAt,
		endedAt:           endedAt,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

func (t *Trip) ID() uuid.UUID               { return t.id }
func (t *Trip) Generation() uint64          { return t.generation }
func (t *Trip) Status() TripStatus          { return t.status }
func (t *Trip) Mode() TravelMode            { return t.mode }
func (t *Trip) Waypoints() []WaypointDTO    { return t.waypoints }
func (t *Trip) Simulated() bool             { return t.simulated }
func (t *Trip) RouteDistance() float64      { return t.routeDistance }
func (t *Trip) RouteDuration() float64      { return t.routeDuration }
func (t *Trip) DistanceRemaining() *float64 { return t.distanceRemaining }
func (t *Trip) DurationRemaining() *float64 { return t.durationRemaining }
func (t *Trip) StartedAt() time.Time        { return t.startedAt }
func (t *Trip) EndedAt() *time.Time         { return t.endedAt }
func (t *Trip) Version() int64              { return t.version }
func (t *Trip) CreatedAt() time.Time        { return t.createdAt }
func (t *Trip) UpdatedAt() time.Time        { return t.updatedAt }

// --- Behavior ---

// Arrive marks the trip as having reached its final destination.
func (t *Trip) Arrive(at time.Time, distanceRemaining, durationRemaining *float64) error {
	if !t.status.CanTransitionTo(TripStatusArrived) {
		return domain.NewInvalidStateError(string(t.status), string(TripStatusArrived))
	}
	ended := at.UTC()
	t.status = TripStatusArrived
	t.endedAt = &ended
	t.recordRemaining(distanceRemaining, durationRemaining)
	t.updatedAt = time.Now().UTC()
	return nil
}

// Resume puts an arrived trip back under guidance.
func (t *Trip) Resume() error {
	if !t.status.CanTransitionTo(TripStatusActive) {
		return domain.NewInvalidStateError(string(t.status), string(TripStatusActive))
	}
	t.status = TripStatusActive
	t.endedAt = nil
	t.updatedAt = time.Now().UTC()
	return nil
}

// Cancel marks the trip as abandoned before arrival.
func (t *Trip) Cancel(at time.Time, distanceRemaining, durationRemaining *float64) error {
	if !t.status.CanTransitionTo(TripStatusCancelled) {
		return domain.NewInvalidStateError(string(t.status), string(TripStatusCancelled))
	}
	ended := at.UTC()
	t.status = TripStatusCancelled
	t.endedAt = &ended
	t.recordRemaining(distanceRemaining, durationRemaining)
	t.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (t *Trip) IncrementVersion() {
	t.version++
	t.updatedAt = time.Now().UTC()
}

func (t *Trip) recordRemaining(distance, duration *float64) {
	if distance != nil {
		t.distanceRemaining = copyFloat(distance)
	}
	if duration != nil {
		t.durationRemaining = copyFloat(duration)
	}
}
