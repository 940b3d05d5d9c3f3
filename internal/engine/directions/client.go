// Package directions implements navigation.RouteService against a
// Mapbox-Directions-compatible HTTP API.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Config holds the directions endpoint settings.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// Client requests routes over HTTP. Each request runs in its own goroutine
// and reports exactly one outcome to its callback.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight map[uint64]context.CancelFunc
}

// NewClient creates a new directions Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		inFlight:   make(map[uint64]context.CancelFunc),
	}
}

// RequestRoutes starts the request and returns immediately.
func (c *Client) RequestRoutes(ctx context.Context, req navigation.RouteRequest, cb navigation.RouteCallback) {
	reqCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.inFlight[req.Generation] = cancel
	c.mu.Unlock()

	go func() {
		defer c.finish(req.Generation)
		defer cancel()

		routes, failures, err := c.fetch(reqCtx, req)
		switch {
		case errors.Is(reqCtx.Err(), context.Canceled):
			c.logger.Debug("directions request cancelled", zap.Uint64("generation", req.Generation))
			cb.OnCanceled()
		case err != nil:
			c.logger.Warn("directions request failed",
				zap.Uint64("generation", req.Generation),
				zap.Error(err),
			)
			cb.OnFailure([]navigation.RouterFailure{{Code: "RequestFailed", Message: err.Error()}})
		case len(failures) > 0:
			cb.OnFailure(failures)
		default:
			cb.OnRoutesReady(routes)
		}
	}()
}

// CancelRequest aborts the request with the given generation, if any.
func (c *Client) CancelRequest(generation uint64) {
	c.mu.Lock()
	cancel, ok := c.inFlight[generation]
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

func (c *Client) finish(generation uint64) {
	c.mu.Lock()
	delete(c.inFlight, generation)
	c.mu.Unlock()
}

// --- Wire types ---

type directionsResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Routes  []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Weight   float64           `json:"weight"`
	Geometry *geojson.Geometry `json:"geometry"`
	Legs     []directionsLeg   `json:"legs"`
}

type directionsLeg struct {
	Summary  string           `json:"summary"`
	Distance float64          `json:"distance"`
	Duration float64          `json:"duration"`
	Steps    []directionsStep `json:"steps"`
}

type directionsStep struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Maneuver struct {
		Instruction string    `json:"instruction"`
		Location    orb.Point `json:"location"`
	} `json:"maneuver"`
}

// fetch performs the HTTP call. A non-OK response code yields failures
// rather than an error.
func (c *Client) fetch(ctx context.Context, req navigation.RouteRequest) (navigation.RouteSet, []navigation.RouterFailure, error) {
	endpoint, err := c.buildURL(req)
	if err != nil {
		return nil, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create directions request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call directions API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read directions response: %w", err)
	}

	var dr directionsResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, nil, fmt.Errorf("directions API returned status %d", resp.StatusCode)
		}
		return nil, nil, fmt.Errorf("failed to decode directions response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || (dr.Code != "" && dr.Code != "Ok") {
		code := dr.Code
		if code == "" {
			code = strconv.Itoa(resp.StatusCode)
		}
		msg := dr.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, []navigation.RouterFailure{{Code: code, Message: msg}}, nil
	}

	if len(dr.Routes) == 0 {
		return nil, []navigation.RouterFailure{{Code: "NoRoute", Message: "no route found"}}, nil
	}

	routes := make(navigation.RouteSet, 0, len(dr.Routes))
	for _, r := range dr.Routes {
		routes = append(routes, toRoute(r))
	}
	return routes, nil, nil
}

func (c *Client) buildURL(req navigation.RouteRequest) (string, error) {
	if len(req.Coordinates) < navigation.MinWaypoints {
		return "", navigation.ErrInsufficientWaypoints
	}

	coords := make([]string, len(req.Coordinates))
	for i, p := range req.Coordinates {
		coords[i] = formatCoord(p.Lon()) + "," + formatCoord(p.Lat())
	}

	opts := req.Options
	params := url.Values{}
	params.Set("access_token", c.cfg.AccessToken)
	params.Set("geometries", "geojson")
	params.Set("overview", "full")
	params.Set("steps", "true")
	params.Set("alternatives", strconv.FormatBool(opts.Alternatives))
	params.Set("voice_instructions", strconv.FormatBool(opts.VoiceInstructionsEnabled))
	params.Set("banner_instructions", strconv.FormatBool(opts.BannerInstructionsEnabled))
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	if opts.Units != "" {
		params.Set("voice_units", string(opts.Units))
	}

	var indices, names []string
	for i, idx := range req.WaypointIndices {
		if idx == nil {
			continue
		}
		indices = append(indices, strconv.Itoa(*idx))
		name := ""
		if i < len(req.WaypointNames) && req.WaypointNames[i] != nil {
			name = *req.WaypointNames[i]
		}
		names = append(names, name)
	}
	if len(indices) > 0 && len(indices) < len(req.Coordinates) {
		params.Set("waypoints", strings.Join(indices, ";"))
	}
	if hasAny(names) {
		params.Set("waypoint_names", strings.Join(names, ";"))
	}

	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s",
		base, profile(opts.Mode), strings.Join(coords, ";"), params.Encode()), nil
}

func profile(mode navigation.TravelMode) string {
	if !mode.IsValid() {
		return string(navigation.ModeDrivingTraffic)
	}
	return string(mode)
}

func toRoute(r directionsRoute) navigation.Route {
	route := navigation.Route{
		Distance: r.Distance,
		Duration: r.Duration,
		Weight:   r.Weight,
	}
	if r.Geometry != nil {
		if ls, ok := r.Geometry.Geometry().(orb.LineString); ok {
			route.Geometry = ls
		}
	}
	for _, l := range r.Legs {
		leg := navigation.RouteLeg{
			Summary:  l.Summary,
			Distance: l.Distance,
			Duration: l.Duration,
		}
		for _, s := range l.Steps {
			leg.Steps = append(leg.Steps, navigation.RouteStep{
				Instruction: s.Maneuver.Instruction,
				Name:        s.Name,
				Distance:    s.Distance,
				Duration:    s.Duration,
				Maneuver:    s.Maneuver.Location,
			})
		}
		route.Legs = append(route.Legs, leg)
	}
	return route
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func hasAny(values []string) bool {
	for _, v := range values {
		if v != "" {
			return true
		}
	}
	return false
}
