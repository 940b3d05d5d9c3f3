package navigation

// TravelMode is the routing profile requested from the engine.
type TravelMode string

const (
	ModeDriving        TravelMode = "driving"
	ModeDrivingTraffic TravelMode = "driving-traffic"
	ModeWalking        TravelMode = "walking"
	ModeCycling        TravelMode = "cycling"
)

// IsValid returns true if the mode is a recognized profile.
func (m TravelMode) IsValid() bool {
	switch m {
	case ModeDriving, ModeDrivingTraffic, ModeWalking, ModeCycling:
		return true
	}
	return false
}

// UnitSystem selects the units used for spoken and banner distances.
type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
)

// IsValid returns true if the unit system is recognized.
func (u UnitSystem) IsValid() bool {
	return u == UnitsMetric || u == UnitsImperial
}

// Default map styles.
const (
	DefaultMapStyleDay   = "mapbox://styles/mapbox/streets-v12"
	DefaultMapStyleNight = "mapbox://styles/mapbox/dark-v11"
)

// RouteRequestOptions is the option snapshot applied to route requests and
// to the guidance session.
type RouteRequestOptions struct {
	Mode                        TravelMode `json:"mode"`
	Units                       UnitSystem `json:"units"`
	Language                    string     `json:"language"`
	Alternatives                bool       `json:"alternatives"`
	VoiceInstructionsEnabled    bool       `json:"voiceInstructionsEnabled"`
	BannerInstructionsEnabled   bool       `json:"bannerInstructionsEnabled"`
	SimulateRoute               bool       `json:"simulateRoute"`
	IsOptimized                 bool       `json:"isOptimized"`
	AnimateBuildRoute           bool       `json:"animateBuildRoute"`
	LongPressDestinationEnabled bool       `json:"longPressDestinationEnabled"`
	EnableOnMapTapCallback      bool       `json:"enableOnMapTapCallback"`
	Zoom                        float64    `json:"zoom"`
	Bearing                     float64    `json:"bearing"`
	Tilt                        float64    `json:"tilt"`
	InitialLatitude             *float64   `json:"initialLatitude,omitempty"`
	InitialLongitude            *float64   `json:"initialLongitude,omitempty"`
	MapStyleURLDay              string     `json:"mapStyleUrlDay"`
	MapStyleURLNight            string     `json:"mapStyleUrlNight"`
}

// DefaultRouteRequestOptions returns the options every session starts from.
func DefaultRouteRequestOptions() RouteRequestOptions {
	return RouteRequestOptions{
		Mode:                        ModeDrivingTraffic,
		Units:                       UnitsImperial,
		Language:                    "en",
		Alternatives:                true,
		VoiceInstructionsEnabled:    true,
		BannerInstructionsEnabled:   true,
		AnimateBuildRoute:           true,
		LongPressDestinationEnabled: true,
		Zoom:                        15,
		MapStyleURLDay:              DefaultMapStyleDay,
		MapStyleURLNight:            DefaultMapStyleNight,
	}
}

// ApplyOverrides copies every field present in o onto the options. Absent
// fields leave the current value untouched, so applying the same overrides
// twice is the same as applying them once.
func (opts *RouteRequestOptions) ApplyOverrides(o Overrides) {
	if o.Mode != nil {
		opts.Mode = *o.Mode
	}
	if o.Units != nil {
		opts.Units = *o.Units
	}
	if o.Language != nil {
		opts.Language = *o.Language
	}
	if o.Alternatives != nil {
		opts.Alternatives = *o.Alternatives
	}
	if o.VoiceInstructionsEnabled != nil {
		opts.VoiceInstructionsEnabled = *o.VoiceInstructionsEnabled
	}
	if o.BannerInstructionsEnabled != nil {
		opts.BannerInstructionsEnabled = *o.BannerInstructionsEnabled
	}
	if o.SimulateRoute != nil {
		opts.SimulateRoute = *o.SimulateRoute
	}
	if o.IsOptimized != nil {
		opts.IsOptimized = *o.IsOptimized
	}
	if o.AnimateBuildRoute != nil {
		opts.AnimateBuildRoute = *o.AnimateBuildRoute
	}
	if o.LongPressDestinationEnabled != nil {
		opts.LongPressDestinationEnabled = *o.LongPressDestinationEnabled
	}
	if o.EnableOnMapTapCallback != nil {
		opts.EnableOnMapTapCallback = *o.EnableOnMapTapCallback
	}
	if o.Zoom != nil {
		opts.Zoom = *o.Zoom
	}
	if o.Bearing != nil {
		opts.Bearing = *o.Bearing
	}
	if o.Tilt != nil {
		opts.Tilt = *o.Tilt
	}
	if o.InitialLatitude != nil {
		lat := *o.InitialLatitude
		opts.InitialLatitude = &lat
	}
	if o.InitialLongitude != nil {
		lon := *o.InitialLongitude
		opts.InitialLongitude = &lon
	}
	if o.MapStyleURLDay != nil {
		opts.MapStyleURLDay = *o.MapStyleURLDay
	}
	if o.MapStyleURLNight != nil {
		opts.MapStyleURLNight = *o.MapStyleURLNight
	}
}

// Clone returns a deep copy.
func (opts RouteRequestOptions) Clone() RouteRequestOptions {
	out := opts
	if opts.InitialLatitude != nil {
		lat := *opts.InitialLatitude
		out.InitialLatitude = &lat
	}
	if opts.InitialLongitude != nil {
		lon := *opts.InitialLongitude
		out.InitialLongitude = &lon
	}
	return out
}
