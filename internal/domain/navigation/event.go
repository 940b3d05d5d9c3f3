package navigation

import (
	"encoding/json"
	"fmt"
)

// EventName is the closed vocabulary of events relayed to the listener.
type EventName string

const (
	EventRouteBuilding       EventName = "route_building"
	EventRouteBuilt          EventName = "route_built"
	EventRouteBuildFailed    EventName = "route_build_failed"
	EventRouteBuildCancelled EventName = "route_build_cancelled"
	EventNavigationRunning   EventName = "navigation_running"
	EventNavigationCancelled EventName = "navigation_cancelled"
	EventOnArrival           EventName = "on_arrival"
	EventUserOffRoute        EventName = "user_off_route"
	EventRerouteAlong        EventName = "reroute_along"
	EventRouteProgress       EventName = "progress_change"
	EventBannerInstruction   EventName = "banner_instruction"
	EventSpeechAnnouncement  EventName = "speech_announcement"
)

var eventNames = map[EventName]struct{}{
	EventRouteBuilding:       {},
	EventRouteBuilt:          {},
	EventRouteBuildFailed:    {},
	EventRouteBuildCancelled: {},
	EventNavigationRunning:   {},
	EventNavigationCancelled: {},
	EventOnArrival:           {},
	EventUserOffRoute:        {},
	EventRerouteAlong:        {},
	EventRouteProgress:       {},
	EventBannerInstruction:   {},
	EventSpeechAnnouncement:  {},
}

// IsValid returns true if the name belongs to the event vocabulary.
func (n EventName) IsValid() bool {
	_, ok := eventNames[n]
	return ok
}

// String returns the wire name.
func (n EventName) String() string {
	return string(n)
}

// Event is one relayed event. Data holds UTF-8 JSON and is omitted when the
// event has no payload.
type Event struct {
	Name EventName       `json:"eventType"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an event without payload.
func NewEvent(name EventName) Event {
	return Event{Name: name}
}

// NewEventWithPayload builds an event whose payload is v encoded as JSON.
func NewEventWithPayload(name EventName, v interface{}) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{Name: name}, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return Event{Name: name, Data: data}, nil
}

// HasPayload reports whether the event carries data.
func (e Event) HasPayload() bool {
	return len(e.Data) > 0
}
