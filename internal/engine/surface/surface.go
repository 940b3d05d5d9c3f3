// Package surface implements navigation.MapSurface for a headless service:
// it keeps the camera state a client renderer would apply and logs renders.
package surface

import (
	"sync"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// View is what the surface is showing.
type View string

const (
	ViewEmpty     View = "empty"
	ViewPreview   View = "preview"
	ViewFollowing View = "following"
)

// Camera is the current camera state.
type Camera struct {
	View     View      `json:"view"`
	Center   orb.Point `json:"center"`
	Bounds   orb.Bound `json:"bounds"`
	Zoom     float64   `json:"zoom"`
	Bearing  float64   `json:"bearing"`
	Tilt     float64   `json:"tilt"`
	StyleDay string    `json:"styleDay"`
	Routes   int       `json:"routes"`
	Animated bool      `json:"animated"`
}

// Surface tracks camera state. Safe for concurrent use.
type Surface struct {
	mu     sync.Mutex
	camera Camera
	logger *zap.Logger
}

// New creates an empty Surface.
func New(logger *zap.Logger) *Surface {
	return &Surface{camera: Camera{View: ViewEmpty}, logger: logger}
}

// PreviewRoutes frames the whole route set.
func (s *Surface) PreviewRoutes(routes navigation.RouteSet, opts navigation.RouteRequestOptions) {
	bound := routesBound(routes)

	s.mu.Lock()
	s.camera = Camera{
		View:     ViewPreview,
		Center:   bound.Center(),
		Bounds:   bound,
		Zoom:     opts.Zoom,
		StyleDay: opts.MapStyleURLDay,
		Routes:   len(routes),
		Animated: opts.AnimateBuildRoute,
	}
	s.mu.Unlock()

	s.logger.Debug("previewing routes", zap.Int("routes", len(routes)))
}

// ShowActiveGuidance follows the start of the primary route with the
// configured camera hints.
func (s *Surface) ShowActiveGuidance(routes navigation.RouteSet, opts navigation.RouteRequestOptions) {
	center := orb.Point{}
	if primary, ok := routes.Primary(); ok && len(primary.Geometry) > 0 {
		center = primary.Geometry[0]
	}
	if opts.InitialLatitude != nil && opts.InitialLongitude != nil {
		center = orb.Point{*opts.InitialLongitude, *opts.InitialLatitude}
	}

	s.mu.Lock()
	s.camera = Camera{
		View:     ViewFollowing,
		Center:   center,
		Bounds:   routesBound(routes),
		Zoom:     opts.Zoom,
		Bearing:  opts.Bearing,
		Tilt:     opts.Tilt,
		StyleDay: opts.MapStyleURLDay,
		Routes:   len(routes),
	}
	s.mu.Unlock()

	s.logger.Debug("showing active guidance",
		zap.Float64("zoom", opts.Zoom),
		zap.Float64("bearing", opts.Bearing),
		zap.Float64("tilt", opts.Tilt),
	)
}

// Clear removes every route from the surface.
func (s *Surface) Clear() {
	s.mu.Lock()
	s.camera = Camera{View: ViewEmpty}
	s.mu.Unlock()

	s.logger.Debug("surface cleared")
}

// Camera returns the current camera state.
func (s *Surface) Camera() Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

func routesBound(routes navigation.RouteSet) orb.Bound {
	var bound orb.Bound
	first := true
	for _, r := range routes {
		if len(r.Geometry) == 0 {
			continue
		}
		b := r.Geometry.Bound()
		if first {
			bound = b
			first = false
			continue
		}
		bound = bound.Union(b)
	}
	return bound
}
