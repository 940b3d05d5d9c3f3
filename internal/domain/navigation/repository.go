package navigation

import (
	"context"

	"github.com/google/uuid"
)

// TripRepository defines the persistence contract for trips.
type TripRepository interface {
	// FindByID retrieves a trip by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Trip, error)

	// List retrieves trips, newest first, with pagination.
	List(ctx context.Context, page, limit int) ([]*Trip, int64, error)

	// CountByStatus returns trip counts grouped by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new trip.
	Save(ctx context.Context, trip *Trip) error

	// Update persists changes to an existing trip with optimistic locking.
	Update(ctx context.Context, trip *Trip) error
}
