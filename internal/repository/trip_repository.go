package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TripModel is the GORM model for the trips table.
type TripModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Generation        int64           `gorm:"not null"`
	Status            string          `gorm:"not null;size:20;index"`
	Mode              string          `gorm:"not null;size:30"`
	Waypoints         json.RawMessage `gorm:"type:jsonb;not null"`
	RouteDistance     float64         `gorm:"column:route_distance_m;not null;default:0"`
	RouteDuration     float64         `gorm:"column:route_duration_s;not null;default:0"`
	DistanceRemaining *float64        `gorm:""`
	DurationRemaining *float64        `gorm:""`
	Simulated         bool            `gorm:"not null;default:false"`
	StartedAt         time.Time       `gorm:"not null;index"`
	EndedAt           *time.Time      `gorm:""`
	Version           int64           `gorm:"not null;default:1"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TripModel) TableName() string {
	return "trips"
}

// GormTripRepository is the GORM-based implementation of TripRepository.
type GormTripRepository struct {
	db *gorm.DB
}

// NewGormTripRepository creates a new GormTripRepository.
func NewGormTripRepository(db *gorm.DB) *GormTripRepository {
	return &GormTripRepository{db: db}
}

// FindByID retrieves a trip by its unique identifier.
func (r *GormTripRepository) FindByID(ctx context.Context, id uuid.UUID) (*navigation.Trip, error) {
	var model TripModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Trip", id.String())
		}
		return nil, fmt.Errorf("failed to find trip by ID: %w", err)
	}
	return toDomainTrip(&model)
}

// List retrieves trips with pagination, most recently started first.
func (r *GormTripRepository) List(ctx context.Context, page, limit int) ([]*navigation.Trip, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TripModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	var models []TripModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}

	trips := make([]*navigation.Trip, len(models))
	for i := range models {
		t, err := toDomainTrip(&models[i])
		if err != nil {
			return nil, 0, err
		}
		trips[i] = t
	}

	return trips, total, nil
}

// CountByStatus returns trip counts grouped by status.
func (r *GormTripRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&TripModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new trip. Saving an ID that already exists is a no-op.
func (r *GormTripRepository) Save(ctx context.Context, t *navigation.Trip) error {
	model, err := toTripModel(t)
	if err != nil {
		return fmt.Errorf("failed to convert trip to model: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(model).Error; err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

// Update persists changes to an existing trip with optimistic locking.
func (r *GormTripRepository) Update(ctx context.Context, t *navigation.Trip) error {
	model, err := toTripModel(t)
	if err != nil {
		return fmt.Errorf("failed to convert trip to model: %w", err)
	}

	// IncrementVersion has already run, so the stored row holds version - 1.
	expectedVersion := t.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&TripModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":             model.Status,
			"distance_remaining": model.DistanceRemaining,
			"duration_remaining": model.DurationRemaining,
			"ended_at":           model.EndedAt,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update trip: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("trip was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toTripModel(t *navigation.Trip) (*TripModel, error) {
	waypointsJSON, err := json.Marshal(t.Waypoints())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal waypoints: %w", err)
	}

	return &TripModel{
		ID:                t.ID(),
		Generation:        int64(t.Generation()),
		Status:            string(t.Status()),
		Mode:              string(t.Mode()),
		Waypoints:         waypointsJSON,
		RouteDistance:     t.RouteDistance(),
		RouteDuration:     t.RouteDuration(),
		DistanceRemaining: t.DistanceRemaining(),
		DurationRemaining: t.DurationRemaining(),
		Simulated:         t.Simulated(),
		StartedAt:         t.StartedAt(),
		EndedAt:           t.EndedAt(),
		Version:           t.Version(),
		CreatedAt:         t.CreatedAt(),
		UpdatedAt:         t.UpdatedAt(),
	}, nil
}

func toDomainTrip(m *TripModel) (*navigation.Trip, error) {
	var waypoints []navigation.WaypointDTO
	if err := json.Unmarshal(m.Waypoints, &waypoints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal waypoints: %w", err)
	}

	status, err := navigation.ParseTripStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return navigation.ReconstructTrip(
		m.ID,
		uint64(m.Generation),
		status,
		navigation.TravelMode(m.Mode),
		waypoints,
		m.Simulated,
		m.RouteDistance,
		m.RouteDuration,
		m.DistanceRemaining,
		m.DurationRemaining,
		m.StartedAt,
		m.EndedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
