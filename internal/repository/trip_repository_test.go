package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripModelConversion(t *testing.T) {
	trip, err := navigation.NewTrip(uuid.New(), 7, navigation.ModeCycling, []navigation.WaypointDTO{
		{Latitude: 3.139, Longitude: 101.6869, Name: "KLCC"},
		{Latitude: 3.1579, Longitude: 101.7116, IsSilent: true},
	}, 4200, 900, true, time.Now())
	require.NoError(t, err)
	remaining := 120.0
	require.NoError(t, trip.Arrive(time.Now(), &remaining, nil))
	trip.IncrementVersion()

	model, err := toTripModel(trip)
	require.NoError(t, err)
	assert.Equal(t, "arrived", model.Status)
	assert.Equal(t, int64(7), model.Generation)
	assert.Equal(t, int64(2), model.Version)
	assert.JSONEq(t, `[
		{"latitude":3.139,"longitude":101.6869,"isSilent":false,"name":"KLCC"},
		{"latitude":3.1579,"longitude":101.7116,"isSilent":true}
	]`, string(model.Waypoints))

	back, err := toDomainTrip(model)
	require.NoError(t, err)
	assert.Equal(t, trip.ID(), back.ID())
	assert.Equal(t, trip.Status(), back.Status())
	assert.Equal(t, trip.Mode(), back.Mode())
	assert.Equal(t, trip.Waypoints(), back.Waypoints())
	assert.Equal(t, 120.0, *back.DistanceRemaining())
	assert.Nil(t, back.DurationRemaining())
	assert.True(t, back.Simulated())
}

func TestToDomainTrip_RejectsCorruptRows(t *testing.T) {
	_, err := toDomainTrip(&TripModel{ID: uuid.New(), Status: "arrived", Waypoints: json.RawMessage(`{`)})
	assert.Error(t, err)

	_, err = toDomainTrip(&TripModel{ID: uuid.New(), Status: "teleported", Waypoints: json.RawMessage(`[]`)})
	assert.Error(t, err)
}
