package distance

import (
	"fmt"

	"github.com/cityagent/emptyleg/pkg/config"
)

// NewRouter returns the configured routing provider, or nil when routing is disabled
func NewRouter(cfg config.RoutingConfig) (Router, error) {
	switch cfg.Provider {
	case "google":
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("google routing requires EMPTYLEG_GOOGLE_MAPS_API_KEY")
		}
		router, err := NewGoogleRouter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		return router, nil
	case "tomtom":
		if cfg.TomTomAPIKey == "" {
			return nil, fmt.Errorf("tomtom routing requires EMPTYLEG_TOMTOM_API_KEY")
		}
		return NewTomTomRouter(cfg.TomTomAPIKey), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown routing provider %q", cfg.Provider)
	}
}
