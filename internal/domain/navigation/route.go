package navigation

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RouteStep is one maneuver of a route leg.
type RouteStep struct {
	Instruction string    `json:"instruction"`
	Name        string    `json:"name,omitempty"`
	Distance    float64   `json:"distance"`
	Duration    float64   `json:"duration"`
	Maneuver    orb.Point `json:"maneuver"`
}

// RouteLeg is the part of a route between two routing waypoints.
type RouteLeg struct {
	Summary  string      `json:"summary,omitempty"`
	Distance float64     `json:"distance"`
	Duration float64     `json:"duration"`
	Steps    []RouteStep `json:"steps"`
}

// Route is one candidate route returned by the engine. Distances are in
// meters and durations in seconds.
type Route struct {
	Distance float64        `json:"distance"`
	Duration float64        `json:"duration"`
	Weight   float64        `json:"weight"`
	Geometry orb.LineString `json:"geometry"`
	Legs     []RouteLeg     `json:"legs"`
}

// RouteSet is the ordered list of routes for one request; the first entry
// is the primary route.
type RouteSet []Route

// Primary returns the first route, or false for an empty set.
func (rs RouteSet) Primary() (Route, bool) {
	if len(rs) == 0 {
		return Route{}, false
	}
	return rs[0], true
}

// FeatureCollection renders the routes as GeoJSON LineString features with
// summary properties.
func (rs RouteSet) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, r := range rs {
		f := geojson.NewFeature(r.Geometry)
		f.Properties["routeIndex"] = i
		f.Properties["primary"] = i == 0
		f.Properties["distance"] = r.Distance
		f.Properties["duration"] = r.Duration
		f.Properties["weight"] = r.Weight
		f.Properties["legs"] = r.Legs
		fc.Append(f)
	}
	return fc
}

// TotalSteps counts the steps across all legs.
func (r Route) TotalSteps() int {
	n := 0
	for _, leg := range r.Legs {
		n += len(leg.Steps)
	}
	return n
}
