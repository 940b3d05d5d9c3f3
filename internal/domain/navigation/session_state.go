package navigation

import "fmt"

// SessionState is the phase of the navigation session.
type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateRouteRequested SessionState = "route_requested"
	StateRoutePreview   SessionState = "route_preview"
	StateNavigating     SessionState = "navigating"
	StateArrived        SessionState = "arrived"
)

// validSessionTransitions defines the session state machine.
var validSessionTransitions = map[SessionState][]SessionState{
	StateIdle:           {StateRouteRequested, StateIdle},
	StateRouteRequested: {StateRouteRequested, StateRoutePreview, StateIdle},
	StateRoutePreview:   {StateRouteRequested, StateNavigating, StateIdle},
	StateNavigating:     {StateRouteRequested, StateNavigating, StateArrived, StateIdle},
	StateArrived:        {StateRouteRequested, StateNavigating, StateIdle},
}

// IsValid returns true if the state is recognized.
func (s SessionState) IsValid() bool {
	_, exists := validSessionTransitions[s]
	return exists
}

// CanTransitionTo returns true if moving from s to target is allowed.
func (s SessionState) CanTransitionTo(target SessionState) bool {
	for _, t := range validSessionTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsGuiding returns true while turn-by-turn guidance is on screen.
func (s SessionState) IsGuiding() bool {
	return s == StateNavigating || s == StateArrived
}

// String returns the string representation of the state.
func (s SessionState) String() string {
	return string(s)
}

// ParseSessionState converts a string to a SessionState.
func ParseSessionState(s string) (SessionState, error) {
	state := SessionState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid session state: %s", s)
	}
	return state, nil
}
