package store

import (
	"context"
	"errors"
	"time"

	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/distance"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type distanceCacheDocument struct {
	StartLat float64 `bson:"StartLat"`
	StartLon float64 `bson:"StartLon"`
	EndLat   float64 `bson:"EndLat"`
	EndLon   float64 `bson:"EndLon"`
	Source   string  `bson:"Source"`

	DistanceMeters  *float64 `bson:"Distance_meters"`
	DurationSeconds *float64 `bson:"Duration_seconds"`
	DistanceDisplay *string  `bson:"Distance_display"`
	DurationDisplay *string  `bson:"Duration_display"`

	LastUpdated time.Time `bson:"LastUpdated"`
}

// DistanceCache is the durable route cache. Failed routes are stored with a null distance.
type DistanceCache struct{}

func DistanceCacheFilter(key distance.Key) bson.M {
	return bson.M{
		"StartLat": key.From.Latitude,
		"StartLon": key.From.Longitude,
		"EndLat":   key.To.Latitude,
		"EndLon":   key.To.Longitude,
		"Source":   key.Source,
	}
}

func (d *DistanceCache) Get(ctx context.Context, key distance.Key) (*distance.Result, error) {
	collection := database.GetCollection(database.DistanceCacheCollection)

	var document distanceCacheDocument
	err := collection.FindOne(ctx, DistanceCacheFilter(key)).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, distance.ErrNotCached
	} else if err != nil {
		return nil, err
	}

	if document.DistanceMeters == nil {
		return nil, nil
	}

	result := &distance.Result{DistanceMeters: *document.DistanceMeters}
	if document.DurationSeconds != nil {
		result.DurationSeconds = *document.DurationSeconds
	}

	return result, nil
}

func (d *DistanceCache) Set(ctx context.Context, key distance.Key, result *distance.Result) error {
	collection := database.GetCollection(database.DistanceCacheCollection)

	_, err := collection.UpdateOne(ctx,
		DistanceCacheFilter(key),
		bson.M{"$set": newDistanceCacheDocument(key, result, time.Now().UTC())},
		options.Update().SetUpsert(true),
	)

	return err
}

func newDistanceCacheDocument(key distance.Key, result *distance.Result, now time.Time) distanceCacheDocument {
	document := distanceCacheDocument{
		StartLat:    key.From.Latitude,
		StartLon:    key.From.Longitude,
		EndLat:      key.To.Latitude,
		EndLon:      key.To.Longitude,
		Source:      key.Source,
		LastUpdated: now,
	}

	if result != nil {
		distanceDisplay := distance.FormatDistance(result.DistanceMeters)
		durationDisplay := distance.FormatDuration(result.DurationSeconds)

		document.DistanceMeters = &result.DistanceMeters
		document.DurationSeconds = &result.DurationSeconds
		document.DistanceDisplay = &distanceDisplay
		document.DurationDisplay = &durationDisplay
	}

	return document
}
