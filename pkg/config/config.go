package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/cityagent/emptyleg/pkg/util"
	"github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"
)

// Interval is a duration that can be written as a Go duration ("30s") or ISO-8601 ("PT30S")
type Interval time.Duration

func (i Interval) Duration() time.Duration {
	return time.Duration(i)
}

func (i *Interval) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseInterval(value.Value)
	if err != nil {
		return err
	}

	*i = Interval(parsed)
	return nil
}

// ParseInterval accepts either a Go duration string or an ISO-8601 duration
func ParseInterval(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(strings.ToUpper(value), "P") {
		isoDuration, err := duration.ParseISO8601(strings.ToUpper(value))
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 interval %q: %w", value, err)
		}

		reference := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		return isoDuration.Shift(reference).Sub(reference), nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", value, err)
	}

	return parsed, nil
}

type MatchingConfig struct {
	HomeBase     transfer.Location `yaml:"home_base"`
	HomeRadiusKm float64           `yaml:"home_radius_km"`

	MaxDistanceKm            float64 `yaml:"max_distance_km"`
	MaxWaitMinutes           float64 `yaml:"max_wait_minutes"`
	DoubleUtilizationMinutes float64 `yaml:"double_utilization_minutes"`

	CalendarAPIStatus string `yaml:"calendar_api_status"`
	DistanceSourceTag string `yaml:"distance_source_tag"`

	// RecordFilter is an optional expression a record must satisfy to take part in matching
	RecordFilter string `yaml:"record_filter"`

	CycleInterval Interval `yaml:"cycle_interval"`
	IdleInterval  Interval `yaml:"idle_interval"`
	ErrorBackoff  Interval `yaml:"error_backoff"`
}

type RoutingConfig struct {
	Provider     string   `yaml:"provider"`
	GoogleAPIKey string   `yaml:"-"`
	TomTomAPIKey string   `yaml:"-"`
	CacheTTL     Interval `yaml:"cache_ttl"`
}

type EventsConfig struct {
	QueueName string `yaml:"queue_name"`
}

type Config struct {
	Matching MatchingConfig `yaml:"matching"`
	Routing  RoutingConfig  `yaml:"routing"`
	Events   EventsConfig   `yaml:"events"`
}

func Default() Config {
	return Config{
		Matching: MatchingConfig{
			HomeBase:                 transfer.Location{Latitude: 36.7659, Longitude: 28.8028},
			HomeRadiusKm:             10,
			MaxDistanceKm:            20,
			MaxWaitMinutes:           240,
			DoubleUtilizationMinutes: 90,
			CalendarAPIStatus:        transfer.CalendarAPIStatusNeedsAction,
			DistanceSourceTag:        "match_finder",
			CycleInterval:            Interval(30 * time.Second),
			IdleInterval:             Interval(60 * time.Second),
			ErrorBackoff:             Interval(30 * time.Second),
		},
		Routing: RoutingConfig{
			Provider: "none",
			CacheTTL: Interval(24 * time.Hour),
		},
		Events: EventsConfig{
			QueueName: "match-events",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by EMPTYLEG_CONFIG and environment overrides
func Load() (Config, error) {
	cfg := Default()
	env := util.GetEnvironmentVariables()

	if path := env["EMPTYLEG_CONFIG"]; path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}

		if err := Decode(contents, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnvironment(&cfg, env); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Decode overlays YAML contents onto cfg
func Decode(contents []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	return nil
}

func applyEnvironment(cfg *Config, env map[string]string) error {
	if env["EMPTYLEG_ROUTING_PROVIDER"] != "" {
		cfg.Routing.Provider = strings.ToLower(env["EMPTYLEG_ROUTING_PROVIDER"])
	}
	cfg.Routing.GoogleAPIKey = env["EMPTYLEG_GOOGLE_MAPS_API_KEY"]
	cfg.Routing.TomTomAPIKey = env["EMPTYLEG_TOMTOM_API_KEY"]

	if env["EMPTYLEG_RECORD_FILTER"] != "" {
		cfg.Matching.RecordFilter = env["EMPTYLEG_RECORD_FILTER"]
	}

	if env["EMPTYLEG_EVENTS_QUEUE"] != "" {
		cfg.Events.QueueName = env["EMPTYLEG_EVENTS_QUEUE"]
	}

	for key, target := range map[string]*Interval{
		"EMPTYLEG_CYCLE_INTERVAL": &cfg.Matching.CycleInterval,
		"EMPTYLEG_IDLE_INTERVAL":  &cfg.Matching.IdleInterval,
		"EMPTYLEG_ERROR_BACKOFF":  &cfg.Matching.ErrorBackoff,
	} {
		if env[key] == "" {
			continue
		}

		parsed, err := ParseInterval(env[key])
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*target = Interval(parsed)
	}

	for key, target := range map[string]*float64{
		"EMPTYLEG_HOME_LATITUDE":   &cfg.Matching.HomeBase.Latitude,
		"EMPTYLEG_HOME_LONGITUDE":  &cfg.Matching.HomeBase.Longitude,
		"EMPTYLEG_MAX_DISTANCE_KM": &cfg.Matching.MaxDistanceKm,
	} {
		if env[key] == "" {
			continue
		}

		parsed, err := strconv.ParseFloat(env[key], 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*target = parsed
	}

	return nil
}

func (c Config) Validate() error {
	m := c.Matching

	if !m.HomeBase.IsValid() {
		return fmt.Errorf("home base %s is not a valid coordinate", m.HomeBase)
	}
	if m.MaxDistanceKm <= 0 || m.HomeRadiusKm <= 0 {
		return fmt.Errorf("distance limits must be positive")
	}
	if m.MaxWaitMinutes <= 0 || m.DoubleUtilizationMinutes < 0 {
		return fmt.Errorf("wait windows must be positive")
	}

	intervals := map[string]Interval{
		"cycle_interval": m.CycleInterval,
		"idle_interval":  m.IdleInterval,
		"error_backoff":  m.ErrorBackoff,
	}
	for name, interval := range intervals {
		if interval.Duration() <= 0 {
			return fmt.Errorf("%s must be greater than zero", name)
		}
	}

	switch c.Routing.Provider {
	case "none", "google", "tomtom":
	default:
		return fmt.Errorf("unknown routing provider %q", c.Routing.Provider)
	}

	return nil
}
