package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/config"
)

// ServiceConfig holds all configuration for the navigation service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig

	Directions DirectionsConfig
	Simulation SimulationConfig

	// OptionsProfile is the path of a TOML file with default route options.
	OptionsProfile   string
	JournalQueueSize int
	CommandsEnabled  bool
}

// DirectionsConfig holds the directions API settings.
type DirectionsConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// SimulationConfig tunes route replay.
type SimulationConfig struct {
	Tick  time.Duration
	Speed float64
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("NAVIGATION")
	if err != nil {
		return nil, err
	}

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("DB_NAME", "navigation_db")
	v.SetDefault("DIRECTIONS_BASE_URL", "https://api.mapbox.com")
	v.SetDefault("DIRECTIONS_TIMEOUT", "15s")
	v.SetDefault("SIMULATION_TICK", "1s")
	v.SetDefault("SIMULATION_SPEED", 13.9)
	v.SetDefault("JOURNAL_QUEUE_SIZE", 64)
	v.SetDefault("COMMANDS_ENABLED", true)

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		Directions: DirectionsConfig{
			BaseURL:     v.GetString("DIRECTIONS_BASE_URL"),
			AccessToken: v.GetString("DIRECTIONS_ACCESS_TOKEN"),
			Timeout:     v.GetDuration("DIRECTIONS_TIMEOUT"),
		},
		Simulation: SimulationConfig{
			Tick:  v.GetDuration("SIMULATION_TICK"),
			Speed: v.GetFloat64("SIMULATION_SPEED"),
		},
		OptionsProfile:   v.GetString("OPTIONS_PROFILE"),
		JournalQueueSize: v.GetInt("JOURNAL_QUEUE_SIZE"),
		CommandsEnabled:  v.GetBool("COMMANDS_ENABLED"),
	}, nil
}

// optionsProfile is the TOML layout of an options profile:
//
//	[options]
//	mode = "walking"
//	units = "metric"
//	zoom = 17
type optionsProfile struct {
	Options map[string]interface{} `toml:"options"`
}

// LoadDefaultOptions returns the route options every session starts from:
// the built-in defaults with the profile at path applied on top. An empty
// path yields the built-in defaults. Unknown or invalid keys are ignored.
func LoadDefaultOptions(path string) (navigation.RouteRequestOptions, error) {
	opts := navigation.DefaultRouteRequestOptions()
	if path == "" {
		return opts, nil
	}

	var profile optionsProfile
	if _, err := toml.DecodeFile(path, &profile); err != nil {
		return opts, fmt.Errorf("failed to decode options profile: %w", err)
	}

	opts.ApplyOverrides(navigation.ParseOverrides(profile.Options))
	return opts, nil
}
