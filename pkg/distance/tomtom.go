package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cityagent/emptyleg/pkg/transfer"
)

const tomTomBaseURL = "https://api.tomtom.com"

// TomTomRouter resolves driving routes through the TomTom Routing API
type TomTomRouter struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
	MaxRetries uint64
}

type tomTomRouteResponse struct {
	Routes []struct {
		Summary struct {
			LengthInMeters      float64 `json:"lengthInMeters"`
			TravelTimeInSeconds float64 `json:"travelTimeInSeconds"`
		} `json:"summary"`
	} `json:"routes"`
}

func NewTomTomRouter(apiKey string) *TomTomRouter {
	return &TomTomRouter{
		APIKey:     apiKey,
		BaseURL:    tomTomBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		MaxRetries: 3,
	}
}

func (t *TomTomRouter) Route(ctx context.Context, from transfer.Location, to transfer.Location) (Result, error) {
	endpoint := fmt.Sprintf("%s/routing/1/calculateRoute/%s:%s/json", t.BaseURL, from, to)

	params := url.Values{}
	params.Set("key", t.APIKey)
	params.Set("travelMode", "car")
	params.Set("routeType", "fastest")
	params.Set("traffic", "true")
	params.Set("language", "en-US")

	var result Result

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := t.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("tomtom returned %s", resp.Status)
		}
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(ErrNoRoute)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("tomtom returned %s", resp.Status))
		}

		var routeResponse tomTomRouteResponse
		if err := json.NewDecoder(resp.Body).Decode(&routeResponse); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding tomtom response: %w", err))
		}

		if len(routeResponse.Routes) == 0 {
			return backoff.Permanent(ErrNoRoute)
		}

		summary := routeResponse.Routes[0].Summary
		result = Result{
			DistanceMeters:  summary.LengthInMeters,
			DurationSeconds: summary.TravelTimeInSeconds,
		}

		return nil
	}

	retryBackoff := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.MaxRetries), ctx)
	if err := backoff.Retry(operation, retryBackoff); err != nil {
		return Result{}, err
	}

	return result, nil
}
