package application

import (
	"context"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TripDTO is the response representation of a trip.
type TripDTO struct {
	ID                uuid.UUID                `json:"id"`
	Generation        uint64                   `json:"generation"`
	Status            string                   `json:"status"`
	Mode              string                   `json:"mode"`
	Waypoints         []navigation.WaypointDTO `json:"waypoints"`
	RouteDistance     float64                  `json:"route_distance_m"`
	RouteDuration     float64                  `json:"route_duration_s"`
	DistanceRemaining *float64                 `json:"distance_remaining_m,omitempty"`
	DurationRemaining *float64                 `json:"duration_remaining_s,omitempty"`
	Simulated         bool                     `json:"simulated"`
	StartedAt         time.Time                `json:"started_at"`
	EndedAt           *time.Time               `json:"ended_at,omitempty"`
	Version           int64                    `json:"version"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// TripService serves read access to recorded trips.
type TripService struct {
	repo   navigation.TripRepository
	logger *zap.Logger
}

// NewTripService creates a new TripService.
func NewTripService(repo navigation.TripRepository, logger *zap.Logger) *TripService {
	return &TripService{repo: repo, logger: logger}
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, id uuid.UUID) (*TripDTO, error) {
	trip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toTripDTO(trip)
	return &dto, nil
}

// ListTrips retrieves trips, newest first.
func (s *TripService) ListTrips(ctx context.Context, page, limit int) ([]TripDTO, int64, error) {
	trips, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]TripDTO, len(trips))
	for i, t := range trips {
		dtos[i] = toTripDTO(t)
	}
	return dtos, total, nil
}

// GetTripStats returns trip counts by status.
func (s *TripService) GetTripStats(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx)
}

func toTripDTO(t *navigation.Trip) TripDTO {
	return TripDTO{
		ID:                t.ID(),
		Generation:        t.Generation(),
		Status:            t.Status().String(),
		Mode:              string(t.Mode()),
		Waypoints:         t.Waypoints(),
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
	}
}
