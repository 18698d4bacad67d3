package distance

import (
	"context"
	"fmt"
	"strings"

	"github.com/cityagent/emptyleg/pkg/transfer"
	"googlemaps.github.io/maps"
)

// GoogleRouter resolves driving routes through the Google Maps Directions API
type GoogleRouter struct {
	client *maps.Client
}

func NewGoogleRouter(apiKey string) (*GoogleRouter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &GoogleRouter{client: client}, nil
}

func (g *GoogleRouter) Route(ctx context.Context, from transfer.Location, to transfer.Location) (Result, error) {
	r := &maps.DirectionsRequest{
		Origin:      from.String(),
		Destination: to.String(),
		Mode:        maps.TravelModeDriving,
		Language:    "en",
	}

	routes, _, err := g.client.Directions(ctx, r)
	if err != nil {
		if ctx.Err() == nil && isNoRouteStatus(err) {
			return Result{}, ErrNoRoute
		}
		return Result{}, fmt.Errorf("maps api error: %w", err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Result{}, ErrNoRoute
	}

	leg := routes[0].Legs[0]

	return Result{
		DistanceMeters:  float64(leg.Distance.Meters),
		DurationSeconds: leg.Duration.Seconds(),
	}, nil
}

// The maps client reports non-OK API statuses as errors carrying the status text
func isNoRouteStatus(err error) bool {
	message := err.Error()

	return strings.Contains(message, "ZERO_RESULTS") || strings.Contains(message, "NOT_FOUND")
}
