package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{input: "30s", want: 30 * time.Second},
		{input: "PT30S", want: 30 * time.Second},
		{input: "PT1H30M", want: 90 * time.Minute},
		{input: "p1d", want: 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseInterval("soon")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	cfg := Default()

	err := Decode([]byte(`
matching:
  home_base:
    latitude: 36.62
    longitude: 29.11
  max_wait_minutes: 180
  cycle_interval: PT45S
routing:
  provider: tomtom
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, 36.62, cfg.Matching.HomeBase.Latitude)
	assert.Equal(t, 180.0, cfg.Matching.MaxWaitMinutes)
	assert.Equal(t, 45*time.Second, cfg.Matching.CycleInterval.Duration())
	assert.Equal(t, 20.0, cfg.Matching.MaxDistanceKm)
	assert.Equal(t, "tomtom", cfg.Routing.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	cfg := Default()
	assert.Error(t, Decode([]byte("matching:\n  radius: 3\n"), &cfg))
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("EMPTYLEG_CONFIG", "")
	t.Setenv("EMPTYLEG_ROUTING_PROVIDER", "Google")
	t.Setenv("EMPTYLEG_CYCLE_INTERVAL", "10s")
	t.Setenv("EMPTYLEG_MAX_DISTANCE_KM", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.Routing.Provider)
	assert.Equal(t, 10*time.Second, cfg.Matching.CycleInterval.Duration())
	assert.Equal(t, 15.0, cfg.Matching.MaxDistanceKm)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Routing.Provider = "osrm"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Matching.MaxDistanceKm = 0
	assert.Error(t, cfg.Validate())

	for _, broken := range []func(*MatchingConfig){
		func(m *MatchingConfig) { m.CycleInterval = 0 },
		func(m *MatchingConfig) { m.IdleInterval = Interval(-time.Second) },
		func(m *MatchingConfig) { m.ErrorBackoff = 0 },
	} {
		cfg = Default()
		broken(&cfg.Matching)
		assert.Error(t, cfg.Validate())
	}

	assert.NoError(t, Default().Validate())
}

func TestLoadRejectsZeroBackoff(t *testing.T) {
	t.Setenv("EMPTYLEG_ERROR_BACKOFF", "0s")

	_, err := Load()
	assert.ErrorContains(t, err, "error_backoff")
}
