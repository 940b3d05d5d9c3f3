package application

import (
	"context"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/contracts"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TripRecordKind identifies a trip lifecycle change.
type TripRecordKind string

const (
	TripRecordStarted   TripRecordKind = "started"
	TripRecordArrived   TripRecordKind = "arrived"
	TripRecordCancelled TripRecordKind = "cancelled"
)

// TripRecord is a snapshot of the session taken when a trip changes.
type TripRecord struct {
	Kind              TripRecordKind
	TripID            uuid.UUID
	Generation        uint64
	Mode              navigation.TravelMode
	Waypoints         []navigation.WaypointDTO
	RouteDistance     float64
	RouteDuration     float64
	DistanceRemaining *float64
	DurationRemaining *float64
	Simulated         bool
	OccurredAt        time.Time
}

// TripRecorder receives trip lifecycle changes. Record must not block.
type TripRecorder interface {
	Record(rec TripRecord)
}

type noopRecorder struct{}

func (noopRecorder) Record(TripRecord) {}

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// TripJournal persists trip records and publishes their lifecycle events off
// the session's critical path.
type TripJournal struct {
	repo      navigation.TripRepository
	publisher EventPublisher
	queue     chan TripRecord
	logger    *zap.Logger
}

// NewTripJournal creates a TripJournal with a queue of the given size.
// publisher may be nil.
func NewTripJournal(repo navigation.TripRepository, publisher EventPublisher, queueSize int, logger *zap.Logger) *TripJournal {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &TripJournal{
		repo:      repo,
		publisher: publisher,
		queue:     make(chan TripRecord, queueSize),
		logger:    logger,
	}
}

// Record enqueues rec. When the queue is full the record is dropped.
func (j *TripJournal) Record(rec TripRecord) {
	select {
	case j.queue <- rec:
	default:
		j.logger.Warn("trip journal queue full, dropping record",
			zap.String("kind", string(rec.Kind)),
			zap.String("trip_id", rec.TripID.String()),
		)
	}
}

// Run drains the queue until ctx is cancelled.
func (j *TripJournal) Run(ctx context.Context) {
	j.logger.Info("trip journal started")
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("trip journal stopped")
			return
		case rec := <-j.queue:
			if err := j.Apply(ctx, rec); err != nil {
				j.logger.Error("failed to record trip",
					zap.String("kind", string(rec.Kind)),
					zap.String("trip_id", rec.TripID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// Apply persists a single record and publishes the matching event.
func (j *TripJournal) Apply(ctx context.Context, rec TripRecord) error {
	switch rec.Kind {
	case TripRecordStarted:
		return j.applyStarted(ctx, rec)
	case TripRecordArrived, TripRecordCancelled:
		return j.applyEnded(ctx, rec)
	default:
		return domain.NewValidationError("unknown trip record kind: " + string(rec.Kind))
	}
}

func (j *TripJournal) applyStarted(ctx context.Context, rec TripRecord) error {
	existing, err := j.repo.FindByID(ctx, rec.TripID)
	switch {
	case err == nil:
		if err := existing.Resume(); err != nil {
			return err
		}
		existing.IncrementVersion()
		if err := j.repo.Update(ctx, existing); err != nil {
			return err
		}
	case domain.IsNotFound(err):
		trip, err := navigation.NewTrip(rec.TripID, rec.Generation, rec.Mode, rec.Waypoints,
			rec.RouteDistance, rec.RouteDuration, rec.Simulated, rec.OccurredAt)
		if err != nil {
			return err
		}
		if err := j.repo.Save(ctx, trip); err != nil {
			return err
		}
	default:
		return err
	}

	j.logger.Info("trip started",
		zap.String("trip_id", rec.TripID.String()),
		zap.Uint64("generation", rec.Generation),
	)

	waypoints := make([]contracts.WaypointPayload, len(rec.Waypoints))
	for i, w := range rec.Waypoints {
		waypoints[i] = contracts.WaypointPayload{
			Latitude:  w.Latitude,
			Longitude: w.Longitude,
			IsSilent:  w.IsSilent,
			Name:      w.Name,
		}
	}
	j.publishEvent(ctx, contracts.TripStarted, rec.TripID.String(), contracts.TripStartedEvent{
		TripID:        rec.TripID,
		Generation:    rec.Generation,
		Mode:          string(rec.Mode),
		Waypoints:     waypoints,
		RouteDistance: rec.RouteDistance,
		RouteDuration: rec.RouteDuration,
		Simulated:     rec.Simulated,
		OccurredAt:    rec.OccurredAt,
	})
	return nil
}

func (j *TripJournal) applyEnded(ctx context.Context, rec TripRecord) error {
	trip, err := j.repo.FindByID(ctx, rec.TripID)
	if err != nil {
		return err
	}

	eventType := contracts.TripArrived
	if rec.Kind == TripRecordArrived {
		err = trip.Arrive(rec.OccurredAt, rec.DistanceRemaining, rec.DurationRemaining)
	} else {
		eventType = contracts.TripCancelled
		err = trip.Cancel(rec.OccurredAt, rec.DistanceRemaining, rec.DurationRemaining)
	}
	if err != nil {
		return err
	}

	trip.IncrementVersion()
	if err := j.repo.Update(ctx, trip); err != nil {
		return err
	}

	j.logger.Info("trip ended",
		zap.String("trip_id", rec.TripID.String()),
		zap.String("status", trip.Status().String()),
	)

	j.publishEvent(ctx, eventType, rec.TripID.String(), contracts.TripEndedEvent{
		TripID:            rec.TripID,
		Generation:        rec.Generation,
		Status:            trip.Status().String(),
		DistanceRemaining: trip.DistanceRemaining(),
		DurationRemaining: trip.DurationRemaining(),
		OccurredAt:        rec.OccurredAt,
	})
	return nil
}

func (j *TripJournal) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	if j.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent("service-navigation", eventType, data)
	if err != nil {
		j.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := j.publisher.PublishEvent(ctx, contracts.TopicTripEvents, cloudEvent); err != nil {
		j.logger.Error("failed to publish event",
			zap.String("topic", contracts.TopicTripEvents),
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
