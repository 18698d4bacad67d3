package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/distance"
	"github.com/cityagent/emptyleg/pkg/matching"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestRecordFilters(t *testing.T) {
	rides := UnmatchedFilter(transfer.RecordFamilyRide, transfer.CalendarAPIStatusNeedsAction)
	assert.Equal(t, bson.M{"$ne": true}, rides["MatchAnalyzed"])
	assert.Equal(t, bson.M{"$ne": transfer.RecordStatusRemoved}, rides["Status"])
	assert.Equal(t, bson.M{"$ne": nil}, rides["GeoStatus"])
	assert.Equal(t, bson.M{"$ne": nil}, rides["DistanceStatus"])
	assert.NotContains(t, rides, "API_Status")

	calendar := ActiveFilter(transfer.RecordFamilyCalendar, transfer.CalendarAPIStatusNeedsAction)
	assert.Equal(t, "needsAction", calendar["API_Status"])
	assert.NotContains(t, calendar, "MatchAnalyzed")

	assert.Equal(t, database.RidesCollection, CollectionFor(transfer.RecordFamilyRide))
	assert.Equal(t, database.CalendarCollection, CollectionFor(transfer.RecordFamilyCalendar))
}

func TestWriteModels(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	key := transfer.MatchKey{RideID: "R1", MatchedID: "T1", Source: transfer.RecordFamilyCalendar}

	models := WriteModels([]matching.MatchOperation{
		{Type: matching.OperationInsert, Key: key, Match: &transfer.Match{RideID: "R1", MatchedID: "T1", MatchSource: transfer.RecordFamilyCalendar}, Timestamp: now},
		{Type: matching.OperationRefresh, Key: key, Timestamp: now},
		{Type: matching.OperationOutdate, Key: key, Timestamp: now},
	})
	require.Len(t, models, 3)

	insert, ok := models[0].(*mongo.InsertOneModel)
	require.True(t, ok)
	document := insert.Document.(transfer.Match)
	assert.Equal(t, transfer.MatchStatusActive, document.MatchStatus)
	assert.Equal(t, now, document.LastUpdated)

	refresh, ok := models[1].(*mongo.UpdateOneModel)
	require.True(t, ok)
	assert.Equal(t, ActiveKeyFilter(key), refresh.Filter)
	assert.Equal(t, bson.M{"$set": bson.M{"last_updated": now}}, refresh.Update)

	outdate, ok := models[2].(*mongo.UpdateOneModel)
	require.True(t, ok)
	assert.Equal(t, transfer.MatchStatusActive, outdate.Filter.(bson.M)["MatchStatus"])
	assert.Equal(t, transfer.MatchStatusOutdated, outdate.Update.(bson.M)["$set"].(bson.M)["MatchStatus"])
	assert.Equal(t, now, outdate.Update.(bson.M)["$set"].(bson.M)["outdated_at"])
}

func TestDistanceCacheDocument(t *testing.T) {
	key := distance.Key{
		From:   transfer.Location{Latitude: 36.7659, Longitude: 28.8028},
		To:     transfer.Location{Latitude: 36.6213, Longitude: 29.1164},
		Source: "match_finder",
	}
	now := time.Now().UTC()

	failed := newDistanceCacheDocument(key, nil, now)
	assert.Nil(t, failed.DistanceMeters)
	assert.Nil(t, failed.DurationDisplay)
	assert.Equal(t, 36.7659, failed.StartLat)

	stored := newDistanceCacheDocument(key, &distance.Result{DistanceMeters: 48211, DurationSeconds: 2950}, now)
	require.NotNil(t, stored.DistanceMeters)
	assert.Equal(t, 48211.0, *stored.DistanceMeters)
	assert.Equal(t, "48.2 km", *stored.DistanceDisplay)
	assert.Equal(t, "49 minutes", *stored.DurationDisplay)

	assert.Equal(t, bson.M{
		"StartLat": 36.7659,
		"StartLon": 28.8028,
		"EndLat":   36.6213,
		"EndLon":   29.1164,
		"Source":   "match_finder",
	}, DistanceCacheFilter(key))
}

func TestSummariseBulkWrite(t *testing.T) {
	partial := &mongo.BulkWriteResult{InsertedCount: 2, MatchedCount: 3, ModifiedCount: 3}
	duplicate := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 1, Code: 11000, Message: "E11000 duplicate key error"}},
			{WriteError: mongo.WriteError{Index: 4, Code: 121, Message: "Document failed validation"}},
		},
	}

	tests := []struct {
		name    string
		err     error
		failed  int
		wantErr bool
	}{
		{name: "complete", err: nil},
		{name: "write errors", err: duplicate, failed: 2},
		{name: "wrapped write errors", err: fmt.Errorf("bulk: %w", duplicate), failed: 2},
		{
			name: "write concern",
			err: mongo.BulkWriteException{
				WriteConcernError: &mongo.WriteConcernError{Code: 64, Message: "waiting for replication timed out"},
			},
			wantErr: true,
		},
		{name: "network", err: errors.New("connection reset by peer"), wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := summariseBulkWrite(partial, test.err)

			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, test.failed, result.FailedCount)
			assert.Equal(t, int64(2), result.InsertedCount)
			assert.Equal(t, int64(3), result.MatchedCount)
			assert.Equal(t, int64(3), result.ModifiedCount)
		})
	}

	result, err := summariseBulkWrite(nil, duplicate)
	assert.NoError(t, err)
	assert.Equal(t, matching.BulkResult{FailedCount: 2}, result)
}
