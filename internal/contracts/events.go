// Package contracts holds the Kafka topics, CloudEvent types and payloads
// exchanged by the navigation service.
package contracts

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicNavigationCommands = "navigation.commands"
	TopicTripEvents         = "navigation.trips"
)

// Trip lifecycle event types published on TopicTripEvents.
const (
	TripStarted   = "navigation.trip.started"
	TripArrived   = "navigation.trip.arrived"
	TripCancelled = "navigation.trip.cancelled"
)

// Command event types consumed from TopicNavigationCommands.
const (
	CommandBuildRoute       = "navigation.command.build_route"
	CommandClearRoute       = "navigation.command.clear_route"
	CommandStartNavigation  = "navigation.command.start_navigation"
	CommandFinishNavigation = "navigation.command.finish_navigation"
	CommandStartFreeDrive   = "navigation.command.start_free_drive"
)

// WaypointPayload is a waypoint as carried on the bus.
type WaypointPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsSilent  bool    `json:"isSilent"`
	Name      string  `json:"name,omitempty"`
}

// BuildRouteCommand asks the service to build a route.
type BuildRouteCommand struct {
	Waypoints []WaypointPayload      `json:"waypoints"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

// StartNavigationCommand asks the service to start guidance.
type StartNavigationCommand struct {
	Options map[string]interface{} `json:"options,omitempty"`
}

// TripStartedEvent is published when guidance starts or resumes.
type TripStartedEvent struct {
	TripID        uuid.UUID         `json:"trip_id"`
	Generation    uint64            `json:"generation"`
	Mode          string            `json:"mode"`
	Waypoints     []WaypointPayload `json:"waypoints"`
	RouteDistance float64           `json:"route_distance_m"`
	RouteDuration float64           `json:"route_duration_s"`
	Simulated     bool              `json:"simulated"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// TripEndedEvent is published when a trip arrives or is cancelled.
type TripEndedEvent struct {
	TripID            uuid.UUID `json:"trip_id"`
	Generation        uint64    `json:"generation"`
	Status            string    `json:"status"`
	DistanceRemaining *float64  `json:"distance_remaining_m,omitempty"`
	DurationRemaining *float64  `json:"duration_remaining_s,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}
