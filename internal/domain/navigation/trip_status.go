package navigation

import "fmt"

// TripStatus is the persisted outcome of a guidance session.
type TripStatus string

const (
	TripStatusActive    TripStatus = "active"
	TripStatusArrived   TripStatus = "arrived"
	TripStatusCancelled TripStatus = "cancelled"
)

// validTripTransitions defines the trip lifecycle. An arrived trip may still
// be cancelled if guidance resumes and is then abandoned.
var validTripTransitions = map[TripStatus][]TripStatus{
	TripStatusActive:    {TripStatusArrived, TripStatusCancelled},
	TripStatusArrived:   {TripStatusActive},
	TripStatusCancelled: {},
}

// IsValid returns true if the status is recognized.
func (s TripStatus) IsValid() bool {
	_, exists := validTripTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition to target is allowed.
func (s TripStatus) CanTransitionTo(target TripStatus) bool {
	for _, t := range validTripTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s TripStatus) IsTerminal() bool {
	allowed, exists := validTripTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s TripStatus) String() string {
	return string(s)
}

// ParseTripStatus converts a string to a TripStatus.
func ParseTripStatus(s string) (TripStatus, error) {
	status := TripStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid trip status: %s", s)
	}
	return status, nil
}
