package store

import (
	"context"
	"fmt"

	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordStore reads rides and calendar tasks written by the ingestion pipeline
type RecordStore struct {
	CalendarAPIStatus string
}

func CollectionFor(family transfer.RecordFamily) string {
	if family == transfer.RecordFamilyCalendar {
		return database.CalendarCollection
	}

	return database.RidesCollection
}

// ActiveFilter selects non-removed records with resolved geo and distance status
func ActiveFilter(family transfer.RecordFamily, calendarAPIStatus string) bson.M {
	filter := bson.M{
		"Status":         bson.M{"$ne": transfer.RecordStatusRemoved},
		"GeoStatus":      bson.M{"$ne": nil},
		"DistanceStatus": bson.M{"$ne": nil},
	}

	if family == transfer.RecordFamilyCalendar && calendarAPIStatus != "" {
		filter["API_Status"] = calendarAPIStatus
	}

	return filter
}

// UnmatchedFilter narrows ActiveFilter to records not yet analysed
func UnmatchedFilter(family transfer.RecordFamily, calendarAPIStatus string) bson.M {
	filter := ActiveFilter(family, calendarAPIStatus)
	filter["MatchAnalyzed"] = bson.M{"$ne": true}

	return filter
}

func (s *RecordStore) FetchUnmatched(ctx context.Context, family transfer.RecordFamily) ([]*transfer.Record, error) {
	return s.find(ctx, family, UnmatchedFilter(family, s.CalendarAPIStatus))
}

func (s *RecordStore) FetchActive(ctx context.Context, family transfer.RecordFamily) ([]*transfer.Record, error) {
	return s.find(ctx, family, ActiveFilter(family, s.CalendarAPIStatus))
}

func (s *RecordStore) find(ctx context.Context, family transfer.RecordFamily, filter bson.M) ([]*transfer.Record, error) {
	collection := database.GetCollection(CollectionFor(family))

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("finding %s records: %w", family, err)
	}
	defer cursor.Close(ctx)

	var records []*transfer.Record
	for cursor.Next(ctx) {
		var record transfer.Record
		if err := cursor.Decode(&record); err != nil {
			log.Error().Err(err).Str("family", string(family)).Msg("Failed to decode record")
			continue
		}

		record.Normalise(family)
		records = append(records, &record)
	}

	return records, cursor.Err()
}

func (s *RecordStore) MarkAnalyzed(ctx context.Context, family transfer.RecordFamily, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var operations []mongo.WriteModel
	for _, id := range ids {
		operation := mongo.NewUpdateOneModel()
		operation.SetFilter(bson.M{"ID": id})
		operation.SetUpdate(bson.M{"$set": bson.M{"MatchAnalyzed": true}})

		operations = append(operations, operation)
	}

	collection := database.GetCollection(CollectionFor(family))
	result, err := collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("marking %s analysed: %w", family, err)
	}

	log.Debug().
		Str("family", string(family)).
		Int64("modified", result.ModifiedCount).
		Msg("Marked records analysed")

	return nil
}

func (s *RecordStore) ResetAnalyzed(ctx context.Context, family transfer.RecordFamily) (int64, error) {
	collection := database.GetCollection(CollectionFor(family))

	result, err := collection.UpdateMany(ctx, bson.M{"MatchAnalyzed": true}, bson.M{"$set": bson.M{"MatchAnalyzed": false}})
	if err != nil {
		return 0, fmt.Errorf("resetting %s analysed flags: %w", family, err)
	}

	return result.ModifiedCount, nil
}
