package matching

import (
	"context"
	"time"

	"github.com/cityagent/emptyleg/pkg/config"
	"github.com/cityagent/emptyleg/pkg/distance"
	"github.com/cityagent/emptyleg/pkg/transfer"
)

var (
	homeBase = transfer.Location{Latitude: 36.7659, Longitude: 28.8028}
	fethiye  = transfer.Location{Latitude: 36.6213, Longitude: 29.1164}
)

func offsetNorth(location transfer.Location, degrees float64) transfer.Location {
	return transfer.Location{Latitude: location.Latitude + degrees, Longitude: location.Longitude}
}

func at(hour int, minute int) time.Time {
	return time.Date(2025, 7, 14, hour, minute, 0, 0, time.UTC)
}

func floatPointer(f float64) *float64 {
	return &f
}

func newRide(id string, pickup transfer.Location, dropoff transfer.Location, departure time.Time, durationSeconds float64) *transfer.Record {
	return &transfer.Record{
		ID:           id,
		Family:       transfer.RecordFamilyRide,
		Pickup:       id + " pickup",
		Dropoff:      id + " dropoff",
		PickupLat:    floatPointer(pickup.Latitude),
		PickupLon:    floatPointer(pickup.Longitude),
		DropoffLat:   floatPointer(dropoff.Latitude),
		DropoffLon:   floatPointer(dropoff.Longitude),
		RideDatetime: departure,

		DurationSeconds: floatPointer(durationSeconds),
		Status:          transfer.RecordStatusActive,
	}
}

func newTask(id string, title string, pickup transfer.Location, dropoff transfer.Location, departure time.Time, durationSeconds float64) *transfer.Record {
	return &transfer.Record{
		ID:               id,
		Family:           transfer.RecordFamilyCalendar,
		Title:            title,
		Pickup:           title + " pickup",
		Dropoff:          title + " dropoff",
		PickupLat:        floatPointer(pickup.Latitude),
		PickupLon:        floatPointer(pickup.Longitude),
		DropoffLat:       floatPointer(dropoff.Latitude),
		DropoffLon:       floatPointer(dropoff.Longitude),
		TransferDatetime: departure,

		DurationSeconds: floatPointer(durationSeconds),
		Status:          transfer.RecordStatusActive,
		APIStatus:       transfer.CalendarAPIStatusNeedsAction,
	}
}

func testConfig() config.MatchingConfig {
	return config.Default().Matching
}

// fakeOracle serves fixed results and records how often the provider was asked
type fakeOracle struct {
	cached   map[distance.Key]*distance.Result
	computed *distance.Result
	computes int
}

func (f *fakeOracle) ResolveCached(ctx context.Context, from transfer.Location, to transfer.Location, source string) (*distance.Result, bool, error) {
	result, found := f.cached[distance.Key{From: from, To: to, Source: source}]
	return result, found, nil
}

func (f *fakeOracle) ComputeAndCache(ctx context.Context, from transfer.Location, to transfer.Location, source string) (*distance.Result, error) {
	f.computes++
	if f.computed == nil {
		return nil, distance.ErrNoRoute
	}
	return f.computed, nil
}
