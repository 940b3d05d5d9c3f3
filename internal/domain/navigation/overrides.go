package navigation

import "math"

// Option keys accepted by ParseOverrides.
const (
	KeyMode                        = "mode"
	KeySimulateRoute               = "simulateRoute"
	KeyLanguage                    = "language"
	KeyUnits                       = "units"
	KeyMapStyleURLDay              = "mapStyleUrlDay"
	KeyMapStyleURLNight            = "mapStyleUrlNight"
	KeyInitialLatitude             = "initialLatitude"
	KeyInitialLongitude            = "initialLongitude"
	KeyZoom                        = "zoom"
	KeyBearing                     = "bearing"
	KeyTilt                        = "tilt"
	KeyIsOptimized                 = "isOptimized"
	KeyAnimateBuildRoute           = "animateBuildRoute"
	KeyAlternatives                = "alternatives"
	KeyVoiceInstructionsEnabled    = "voiceInstructionsEnabled"
	KeyBannerInstructionsEnabled   = "bannerInstructionsEnabled"
	KeyLongPressDestinationEnabled = "longPressDestinationEnabled"
	KeyEnableOnMapTapCallback      = "enableOnMapTapCallback"
)

// Overrides is a typed partial RouteRequestOptions. A nil field means the
// caller did not supply it.
type Overrides struct {
	Mode                        *TravelMode
	Units                       *UnitSystem
	Language                    *string
	Alternatives                *bool
	VoiceInstructionsEnabled    *bool
	BannerInstructionsEnabled   *bool
	SimulateRoute               *bool
	IsOptimized                 *bool
	AnimateBuildRoute           *bool
	LongPressDestinationEnabled *bool
	EnableOnMapTapCallback      *bool
	Zoom                        *float64
	Bearing                     *float64
	Tilt                        *float64
	InitialLatitude             *float64
	InitialLongitude            *float64
	MapStyleURLDay              *string
	MapStyleURLNight            *string
}

// IsEmpty reports whether no field is set.
func (o Overrides) IsEmpty() bool {
	return o == Overrides{}
}

// ParseOverrides converts a loosely typed configuration map into Overrides.
// Unknown keys, values of the wrong type, out-of-range numbers and
// unrecognized enum values are dropped; parsing never fails.
func ParseOverrides(config map[string]interface{}) Overrides {
	var o Overrides
	if config == nil {
		return o
	}

	if s, ok := stringValue(config, KeyMode); ok {
		// "driving-traffic" is only reachable as the default.
		switch m := TravelMode(s); m {
		case ModeWalking, ModeCycling, ModeDriving:
			o.Mode = &m
		}
	}
	if s, ok := stringValue(config, KeyUnits); ok {
		if u := UnitSystem(s); u.IsValid() {
			o.Units = &u
		}
	}
	if s, ok := stringValue(config, KeyLanguage); ok && s != "" {
		o.Language = &s
	}
	if s, ok := stringValue(config, KeyMapStyleURLDay); ok && s != "" {
		o.MapStyleURLDay = &s
	}
	if s, ok := stringValue(config, KeyMapStyleURLNight); ok && s != "" {
		o.MapStyleURLNight = &s
	}

	o.SimulateRoute = boolValue(config, KeySimulateRoute)
	o.IsOptimized = boolValue(config, KeyIsOptimized)
	o.AnimateBuildRoute = boolValue(config, KeyAnimateBuildRoute)
	o.Alternatives = boolValue(config, KeyAlternatives)
	o.VoiceInstructionsEnabled = boolValue(config, KeyVoiceInstructionsEnabled)
	o.BannerInstructionsEnabled = boolValue(config, KeyBannerInstructionsEnabled)
	o.LongPressDestinationEnabled = boolValue(config, KeyLongPressDestinationEnabled)
	o.EnableOnMapTapCallback = boolValue(config, KeyEnableOnMapTapCallback)

	o.Zoom = floatValue(config, KeyZoom, 0, 22)
	o.Bearing = floatValue(config, KeyBearing, 0, 360)
	o.Tilt = floatValue(config, KeyTilt, 0, 85)
	o.InitialLatitude = floatValue(config, KeyInitialLatitude, -90, 90)
	o.InitialLongitude = floatValue(config, KeyInitialLongitude, -180, 180)

	return o
}

func stringValue(config map[string]interface{}, key string) (string, bool) {
	s, ok := config[key].(string)
	return s, ok
}

func boolValue(config map[string]interface{}, key string) *bool {
	b, ok := config[key].(bool)
	if !ok {
		return nil
	}
	return &b
}

func floatValue(config map[string]interface{}, key string, min, max float64) *float64 {
	var f float64
	switch v := config[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < min || f > max {
		return nil
	}
	return &f
}
