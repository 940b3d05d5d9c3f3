package navigation

import (
	"fmt"
	"math"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/domain"
	"github.com/paulmach/orb"
)

// Waypoint is an immutable stop on a route. A silent waypoint is routed
// through but produces no spoken or banner guidance.
type Waypoint struct {
	point  orb.Point
	silent bool
	name   string
}

// NewWaypoint validates the coordinate and builds a Waypoint.
func NewWaypoint(latitude, longitude float64, silent bool) (Waypoint, error) {
	return NewNamedWaypoint(latitude, longitude, silent, "")
}

// NewNamedWaypoint is NewWaypoint with a display name.
func NewNamedWaypoint(latitude, longitude float64, silent bool, name string) (Waypoint, error) {
	if math.IsNaN(latitude) || math.IsInf(latitude, 0) || latitude < -90 || latitude > 90 {
		return Waypoint{}, domain.NewValidationError(fmt.Sprintf("invalid latitude: %v", latitude))
	}
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) || longitude < -180 || longitude > 180 {
		return Waypoint{}, domain.NewValidationError(fmt.Sprintf("invalid longitude: %v", longitude))
	}
	return Waypoint{
		point:  orb.Point{longitude, latitude},
		silent: silent,
		name:   name,
	}, nil
}

// Point returns the coordinate in [lon, lat] order.
func (w Waypoint) Point() orb.Point { return w.point }

// Latitude returns the latitude in degrees.
func (w Waypoint) Latitude() float64 { return w.point.Lat() }

// Longitude returns the longitude in degrees.
func (w Waypoint) Longitude() float64 { return w.point.Lon() }

// IsSilent reports whether the waypoint is excluded from guidance.
func (w Waypoint) IsSilent() bool { return w.silent }

// Name returns the display name, possibly empty.
func (w Waypoint) Name() string { return w.name }

// WaypointDTO is the serialized form of a Waypoint.
type WaypointDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsSilent  bool    `json:"isSilent"`
	Name      string  `json:"name,omitempty"`
}

// DTO converts the waypoint to its serialized form.
func (w Waypoint) DTO() WaypointDTO {
	return WaypointDTO{
		Latitude:  w.Latitude(),
		Longitude: w.Longitude(),
		IsSilent:  w.silent,
		Name:      w.name,
	}
}

// ToWaypoint validates the DTO.
func (d WaypointDTO) ToWaypoint() (Waypoint, error) {
	return NewNamedWaypoint(d.Latitude, d.Longitude, d.IsSilent, d.Name)
}
