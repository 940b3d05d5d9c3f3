package application

import (
	"context"
	"sync"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/kafka"
	"github.com/google/uuid"
)

// fakeRouteService keeps callbacks so tests decide when and how each request
// completes.
type fakeRouteService struct {
	mu        sync.Mutex
	requests  []navigation.RouteRequest
	callbacks map[uint64]navigation.RouteCallback
	cancelled []uint64
}

func newFakeRouteService() *fakeRouteService {
	return &fakeRouteService{callbacks: make(map[uint64]navigation.RouteCallback)}
}

func (f *fakeRouteService) RequestRoutes(_ context.Context, req navigation.RouteRequest, cb navigation.RouteCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.callbacks[req.Generation] = cb
}

func (f *fakeRouteService) CancelRequest(generation uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, generation)
}

func (f *fakeRouteService) callback(gen uint64) navigation.RouteCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callbacks[gen]
}

type fakeTripSession struct {
	mu        sync.Mutex
	observer  navigation.TripObserver
	starts    []navigation.TripStart
	freeDrive int
	stops     int
	startErr  error
}

func (f *fakeTripSession) RegisterObserver(observer navigation.TripObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = observer
}

func (f *fakeTripSession) Start(_ context.Context, start navigation.TripStart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, start)
	return f.startErr
}

func (f *fakeTripSession) StartFreeDrive(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freeDrive++
	return nil
}

func (f *fakeTripSession) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

type fakeSurface struct {
	mu       sync.Mutex
	previews int
	guidance int
	clears   int
}

func (f *fakeSurface) PreviewRoutes(navigation.RouteSet, navigation.RouteRequestOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews++
}

func (f *fakeSurface) ShowActiveGuidance(navigation.RouteSet, navigation.RouteRequestOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guidance++
}

func (f *fakeSurface) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []TripRecord
}

func (f *fakeRecorder) Record(rec TripRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
}

func (f *fakeRecorder) kinds() []TripRecordKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]TripRecordKind, len(f.records))
	for i, r := range f.records {
		kinds[i] = r.Kind
	}
	return kinds
}

type eventLog struct {
	mu     sync.Mutex
	events []navigation.Event
}

func (l *eventLog) OnEvent(evt navigation.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

func (l *eventLog) names() []navigation.EventName {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]navigation.EventName, len(l.events))
	for i, e := range l.events {
		names[i] = e.Name
	}
	return names
}

func (l *eventLog) last() navigation.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// memoryTripRepository is an in-memory navigation.TripRepository.
type memoryTripRepository struct {
	mu    sync.Mutex
	trips map[uuid.UUID]*navigation.Trip
}

func newMemoryTripRepository() *memoryTripRepository {
	return &memoryTripRepository{trips: make(map[uuid.UUID]*navigation.Trip)}
}

func (r *memoryTripRepository) FindByID(_ context.Context, id uuid.UUID) (*navigation.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[id]
	if !ok {
		return nil, domain.NewNotFoundError("Trip", id.String())
	}
	return t, nil
}

func (r *memoryTripRepository) List(_ context.Context, page, limit int) ([]*navigation.Trip, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*navigation.Trip, 0, len(r.trips))
	for _, t := range r.trips {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (r *memoryTripRepository) CountByStatus(context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, t := range r.trips {
		counts[t.Status().String()]++
	}
	return counts, nil
}

func (r *memoryTripRepository) Save(_ context.Context, trip *navigation.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips[trip.ID()] = trip
	return nil
}

func (r *memoryTripRepository) Update(_ context.Context, trip *navigation.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[trip.ID()]; !ok {
		return domain.NewNotFoundError("Trip", trip.ID().String())
	}
	r.trips[trip.ID()] = trip
	return nil
}

type publishedEvent struct {
	topic string
	event kafka.CloudEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, event: event})
	return nil
}
