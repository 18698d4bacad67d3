package distance

import (
	"context"
	"errors"
	"fmt"

	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotCached is returned by a Cache that holds no entry for a key
	ErrNotCached = errors.New("distance not cached")

	// ErrNoRoute means the routing provider could not produce a route between the two points
	ErrNoRoute = errors.New("no route found")
)

// Result is a road distance between two points
type Result struct {
	DistanceMeters  float64
	DurationSeconds float64
}

func (r Result) Kilometres() float64 {
	return r.DistanceMeters / 1000
}

func (r Result) Minutes() float64 {
	return r.DurationSeconds / 60
}

// Key identifies a cached route. Source tags which caller computed the entry.
type Key struct {
	From   transfer.Location
	To     transfer.Location
	Source string
}

func (k Key) String() string {
	return fmt.Sprintf("distance:%s:%s:%s", k.Source, k.From, k.To)
}

// Oracle resolves road distances with a cache in front of a routing provider.
type Oracle interface {
	// ResolveCached reports whether an entry exists for the pair. A found entry with a nil
	// result is a previously stored failure.
	ResolveCached(ctx context.Context, from transfer.Location, to transfer.Location, source string) (*Result, bool, error)

	// ComputeAndCache asks the provider for a route and stores the outcome
	ComputeAndCache(ctx context.Context, from transfer.Location, to transfer.Location, source string) (*Result, error)
}

// Router is a routing provider
type Router interface {
	Route(ctx context.Context, from transfer.Location, to transfer.Location) (Result, error)
}

// Cache stores route results. Get returns ErrNotCached on a miss and (nil, nil) for a stored failure.
type Cache interface {
	Get(ctx context.Context, key Key) (*Result, error)
	Set(ctx context.Context, key Key, result *Result) error
}

// CachedOracle checks each cache in order and falls through to the router.
// A hit in a lower cache is written back into the caches above it.
type CachedOracle struct {
	Caches []Cache
	Router Router
}

func (o *CachedOracle) ResolveCached(ctx context.Context, from transfer.Location, to transfer.Location, source string) (*Result, bool, error) {
	key := Key{From: from, To: to, Source: source}

	for i, c := range o.Caches {
		result, err := c.Get(ctx, key)
		if errors.Is(err, ErrNotCached) {
			continue
		} else if err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("Distance cache lookup failed")
			continue
		}

		o.backfill(ctx, key, result, i)

		return result, true, nil
	}

	return nil, false, nil
}

func (o *CachedOracle) ComputeAndCache(ctx context.Context, from transfer.Location, to transfer.Location, source string) (*Result, error) {
	if o.Router == nil {
		return nil, ErrNoRoute
	}

	key := Key{From: from, To: to, Source: source}

	result, err := o.Router.Route(ctx, from, to)
	if errors.Is(err, ErrNoRoute) {
		o.backfill(ctx, key, nil, len(o.Caches))
		return nil, err
	} else if err != nil {
		// Transient provider errors are not stored so the pair is retried next cycle
		return nil, fmt.Errorf("routing %s -> %s: %w", from, to, err)
	}

	log.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("distance", FormatDistance(result.DistanceMeters)).
		Str("duration", FormatDuration(result.DurationSeconds)).
		Msg("Calculated route")

	o.backfill(ctx, key, &result, len(o.Caches))

	return &result, nil
}

func (o *CachedOracle) backfill(ctx context.Context, key Key, result *Result, upTo int) {
	for _, c := range o.Caches[:upTo] {
		if err := c.Set(ctx, key, result); err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("Distance cache store failed")
		}
	}
}
