package navigation

// Location is a position reported by the trip session.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Bearing   float64 `json:"bearing,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
}

// Milestone marks a guidance trigger along the route.
type Milestone struct {
	Identifier       int     `json:"identifier"`
	DistanceTraveled float64 `json:"distanceTraveled"`
	LegIndex         int     `json:"legIndex"`
	StepIndex        int     `json:"stepIndex"`
}

// RouteProgress is one progress tick from the trip session.
type RouteProgress struct {
	Arrived                     bool       `json:"arrived"`
	DistanceRemaining           float64    `json:"distance"`
	DurationRemaining           float64    `json:"duration"`
	DistanceTraveled            float64    `json:"distanceTraveled"`
	FractionTraveled            float64    `json:"fractionTraveled"`
	LegIndex                    int        `json:"legIndex"`
	StepIndex                   int        `json:"stepIndex"`
	CurrentStepInstruction      string     `json:"currentStepInstruction"`
	CurrentLegDistanceTraveled  float64    `json:"currentLegDistanceTraveled"`
	CurrentLegDistanceRemaining float64    `json:"currentLegDistanceRemaining"`
	Location                    *Location  `json:"location,omitempty"`
	Milestone                   *Milestone `json:"lastMilestone,omitempty"`
}
