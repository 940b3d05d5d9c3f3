// Package trip implements navigation.TripSession. With simulateRoute set it
// replays the primary route; otherwise it leaves progress to device
// telemetry.
package trip

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"
)

// Mode describes what the session is currently tracking.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeReplay    Mode = "replay"
	ModeTelemetry Mode = "telemetry"
	ModeFreeDrive Mode = "free_drive"
)

// Config tunes the route replay.
type Config struct {
	// Tick is the interval between progress updates.
	Tick time.Duration
	// Speed is the simulated travel speed in meters per second.
	Speed float64
}

// Simulator tracks one guidance session at a time.
type Simulator struct {
	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	observer   navigation.TripObserver
	mode       Mode
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewSimulator creates a new Simulator.
func NewSimulator(cfg Config, logger *zap.Logger) *Simulator {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 13.9
	}
	return &Simulator{cfg: cfg, logger: logger, mode: ModeIdle}
}

// RegisterObserver sets the observer that receives trip signals.
func (s *Simulator) RegisterObserver(observer navigation.TripObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Mode returns what the simulator is currently doing.
func (s *Simulator) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Generation returns the generation of the tracked session.
func (s *Simulator) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Start begins tracking a guidance session. Any previous session is
// stopped first.
func (s *Simulator) Start(ctx context.Context, start navigation.TripStart) error {
	primary, ok := start.Routes.Primary()
	if !ok {
		return fmt.Errorf("trip session needs at least one route")
	}

	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation = start.Generation
	if !start.Options.SimulateRoute {
		s.mode = ModeTelemetry
		s.logger.Info("trip session awaiting telemetry", zap.Uint64("generation", start.Generation))
		return nil
	}
	if len(primary.Geometry) < 2 {
		return fmt.Errorf("route geometry has %d points, need at least 2", len(primary.Geometry))
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mode = ModeReplay
	s.cancel = cancel
	s.done = done

	r := newReplay(primary, start.Options, s.cfg)
	go s.run(runCtx, done, start.Generation, r, s.observer)

	s.logger.Info("route replay started",
		zap.Uint64("generation", start.Generation),
		zap.Float64("distance_m", r.total),
	)
	return nil
}

// StartFreeDrive stops any replay and tracks without a route.
func (s *Simulator) StartFreeDrive(ctx context.Context) error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeFreeDrive
	s.logger.Info("free drive started")
	return nil
}

// Stop ends the current session and waits for the replay to exit.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mode = ModeIdle
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Simulator) run(ctx context.Context, done chan struct{}, gen uint64, r *replay, observer navigation.TripObserver) {
	defer close(done)
	if observer == nil {
		return
	}

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tick := r.advance()
		if ctx.Err() != nil {
			return
		}

		observer.OnLocationChanged(gen, *tick.progress.Location)
		if tick.stepChanged {
			if tick.banner != "" {
				observer.OnBannerInstruction(gen, tick.banner)
			}
			if tick.voice != "" {
				observer.OnVoiceInstruction(gen, tick.voice)
			}
		}

		if tick.progress.Arrived {
			observer.OnFinalDestinationArrival(gen, tick.progress)
			s.mu.Lock()
			if s.done == done {
				s.cancel()
				s.cancel, s.done = nil, nil
				s.mode = ModeIdle
			}
			s.mu.Unlock()
			s.logger.Info("route replay arrived", zap.Uint64("generation", gen))
			return
		}
		observer.OnRouteProgress(gen, tick.progress)
	}
}

// --- Replay ---

type stepMark struct {
	legIndex    int
	stepIndex   int
	start       float64
	instruction string
}

type replay struct {
	route    navigation.Route
	opts     navigation.RouteRequestOptions
	speed    float64
	step     float64
	total    float64
	traveled float64
	steps    []stepMark
	current  int
}

type replayTick struct {
	progress    navigation.RouteProgress
	stepChanged bool
	banner      string
	voice       string
}

func newReplay(route navigation.Route, opts navigation.RouteRequestOptions, cfg Config) *replay {
	total := geo.Length(route.Geometry)

	var steps []stepMark
	var offset float64
	for li, leg := range route.Legs {
		for si, st := range leg.Steps {
			steps = append(steps, stepMark{
				legIndex:    li,
				stepIndex:   si,
				start:       offset,
				instruction: st.Instruction,
			})
			offset += st.Distance
		}
	}
	// Step distances come from the engine and may not match the geometry.
	if offset > 0 && total > 0 {
		scale := total / offset
		for i := range steps {
			steps[i].start *= scale
		}
	}

	return &replay{
		route:   route,
		opts:    opts,
		speed:   cfg.Speed,
		step:    cfg.Speed * cfg.Tick.Seconds(),
		total:   total,
		steps:   steps,
		current: -1,
	}
}

func (r *replay) advance() replayTick {
	r.traveled += r.step
	if r.traveled > r.total {
		r.traveled = r.total
	}

	point, bearing := geo.PointAtDistanceAlongLine(r.route.Geometry, r.traveled)
	if bearing < 0 {
		bearing += 360
	}

	fraction := 1.0
	if r.total > 0 {
		fraction = r.traveled / r.total
	}
	routeDistance := r.route.Distance
	if routeDistance <= 0 {
		routeDistance = r.total
	}

	arrived := r.traveled >= r.total
	progress := navigation.RouteProgress{
		Arrived:           arrived,
		DistanceRemaining: routeDistance * (1 - fraction),
		DurationRemaining: r.route.Duration * (1 - fraction),
		DistanceTraveled:  routeDistance * fraction,
		FractionTraveled:  fraction,
		Location:          location(point, bearing, r.speed),
	}

	var tick replayTick
	if idx := r.stepAt(r.traveled); idx >= 0 {
		mark := r.steps[idx]
		progress.LegIndex = mark.legIndex
		progress.StepIndex = mark.stepIndex
		progress.CurrentStepInstruction = mark.instruction
		progress.CurrentLegDistanceTraveled, progress.CurrentLegDistanceRemaining = r.legDistances(mark.legIndex, fraction)

		if idx != r.current {
			r.current = idx
			tick.stepChanged = true
			progress.Milestone = &navigation.Milestone{
				Identifier:       idx,
				DistanceTraveled: progress.DistanceTraveled,
				LegIndex:         mark.legIndex,
				StepIndex:        mark.stepIndex,
			}
			if r.opts.BannerInstructionsEnabled {
				tick.banner = mark.instruction
			}
			if r.opts.VoiceInstructionsEnabled {
				tick.voice = mark.instruction
			}
		}
	}
	tick.progress = progress
	return tick
}

func (r *replay) stepAt(traveled float64) int {
	idx := -1
	for i, st := range r.steps {
		if st.start > traveled {
			break
		}
		idx = i
	}
	return idx
}

// legDistances splits the route-level fraction into traveled and remaining
// distance on the given leg.
func (r *replay) legDistances(legIndex int, fraction float64) (float64, float64) {
	var before float64
	for i := 0; i < legIndex && i < len(r.route.Legs); i++ {
		before += r.route.Legs[i].Distance
	}
	if legIndex >= len(r.route.Legs) {
		return 0, 0
	}
	legDistance := r.route.Legs[legIndex].Distance

	routeDistance := r.route.Distance
	if routeDistance <= 0 {
		routeDistance = r.total
	}
	traveled := routeDistance*fraction - before
	if traveled < 0 {
		traveled = 0
	}
	if traveled > legDistance {
		traveled = legDistance
	}
	return traveled, legDistance - traveled
}

func location(p orb.Point, bearing, speed float64) *navigation.Location {
	return &navigation.Location{
		Latitude:  p.Lat(),
		Longitude: p.Lon(),
		Bearing:   bearing,
		Speed:     speed,
	}
}
