package application

import (
	"fmt"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/domain"
)

// BuildRouteRequest holds the data needed to build a route.
type BuildRouteRequest struct {
	Waypoints []navigation.WaypointDTO `json:"waypoints"`
	Options   map[string]interface{}   `json:"options"`
}

// Parse validates the waypoints and types the option overrides. Invalid
// option values are dropped; invalid coordinates are rejected.
func (r BuildRouteRequest) Parse() ([]navigation.Waypoint, navigation.Overrides, error) {
	waypoints := make([]navigation.Waypoint, 0, len(r.Waypoints))
	for i, dto := range r.Waypoints {
		w, err := dto.ToWaypoint()
		if err != nil {
			return nil, navigation.Overrides{}, domain.NewValidationError(fmt.Sprintf("waypoint %d: %v", i, err))
		}
		waypoints = append(waypoints, w)
	}
	return waypoints, navigation.ParseOverrides(r.Options), nil
}

// StartNavigationRequest holds the option overrides applied when guidance starts.
type StartNavigationRequest struct {
	Options map[string]interface{} `json:"options"`
}

// Overrides types the option overrides.
func (r StartNavigationRequest) Overrides() navigation.Overrides {
	return navigation.ParseOverrides(r.Options)
}

// SessionSnapshot is a read-only view of the navigation session.
type SessionSnapshot struct {
	SessionID         string                         `json:"sessionId,omitempty"`
	State             string                         `json:"state"`
	Generation        uint64                         `json:"generation"`
	Cancelled         bool                           `json:"cancelled"`
	Waypoints         []navigation.WaypointDTO       `json:"waypoints"`
	Options           navigation.RouteRequestOptions `json:"options"`
	RouteCount        int                            `json:"routeCount"`
	DistanceRemaining *float64                       `json:"distanceRemaining"`
	DurationRemaining *float64                       `json:"durationRemaining"`
	LastLocation      *navigation.Location           `json:"lastLocation,omitempty"`
}

// TelemetryRequest carries trip-session signals reported by a device when
// the route is not simulated. Generation defaults to the current session.
type TelemetryRequest struct {
	Generation *uint64                   `json:"generation"`
	Location   *navigation.Location      `json:"location"`
	Progress   *navigation.RouteProgress `json:"progress"`
	OffRoute   *bool                     `json:"offRoute"`
	Banner     string                    `json:"banner"`
	Voice      string                    `json:"voice"`
	Rerouted   navigation.RouteSet       `json:"rerouted"`
}
