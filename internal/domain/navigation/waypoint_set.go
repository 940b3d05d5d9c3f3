package navigation

import (
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/domain"
	"github.com/paulmach/orb"
)

// MinWaypoints is the smallest set that forms a route: an origin and one
// destination.
const MinWaypoints = 2

// ErrInsufficientWaypoints is returned when a route is requested with fewer
// than MinWaypoints waypoints.
var ErrInsufficientWaypoints = domain.NewValidationError("at least 2 waypoints are required to build a route")

// WaypointSet is the ordered list of waypoints for the next route request.
// Projections are recomputed on every call.
type WaypointSet struct {
	waypoints []Waypoint
}

// NewWaypointSet creates a set holding waypoints in order.
func NewWaypointSet(waypoints ...Waypoint) *WaypointSet {
	s := &WaypointSet{}
	for _, w := range waypoints {
		s.Add(w)
	}
	return s
}

// Add appends a waypoint. Duplicates are kept.
func (s *WaypointSet) Add(w Waypoint) {
	s.waypoints = append(s.waypoints, w)
}

// Clear removes every waypoint.
func (s *WaypointSet) Clear() {
	s.waypoints = nil
}

// Len returns the number of waypoints.
func (s *WaypointSet) Len() int {
	return len(s.waypoints)
}

// Waypoints returns a copy of the waypoints in order.
func (s *WaypointSet) Waypoints() []Waypoint {
	out := make([]Waypoint, len(s.waypoints))
	copy(out, s.waypoints)
	return out
}

// Coordinates returns the waypoint coordinates in insertion order.
func (s *WaypointSet) Coordinates() ([]orb.Point, error) {
	if len(s.waypoints) < MinWaypoints {
		return nil, ErrInsufficientWaypoints
	}
	coords := make([]orb.Point, len(s.waypoints))
	for i, w := range s.waypoints {
		coords[i] = w.point
	}
	return coords, nil
}

// Indices returns, per waypoint, its index when it is a routing waypoint
// and nil when it is a silent intermediate stop. The origin and the final
// destination are always routing waypoints.
func (s *WaypointSet) Indices() ([]*int, error) {
	if len(s.waypoints) < MinWaypoints {
		return nil, ErrInsufficientWaypoints
	}
	indices := make([]*int, len(s.waypoints))
	for i := range s.waypoints {
		if s.isSilentAt(i) {
			continue
		}
		idx := i
		indices[i] = &idx
	}
	return indices, nil
}

// Names returns, per waypoint, its name when it is a routing waypoint and
// nil when it is a silent intermediate stop.
func (s *WaypointSet) Names() ([]*string, error) {
	if len(s.waypoints) < MinWaypoints {
		return nil, ErrInsufficientWaypoints
	}
	names := make([]*string, len(s.waypoints))
	for i, w := range s.waypoints {
		if s.isSilentAt(i) {
			continue
		}
		name := w.name
		names[i] = &name
	}
	return names, nil
}

func (s *WaypointSet) isSilentAt(i int) bool {
	return s.waypoints[i].silent && i != 0 && i != len(s.waypoints)-1
}
