package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/matching"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/cityagent/emptyleg/pkg/util"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MatchStore persists matches in the match_data collection
type MatchStore struct{}

func ActiveMatchesFilter(rideIDs []string) bson.M {
	return bson.M{
		"Ride_ID":     bson.M{"$in": rideIDs},
		"MatchStatus": transfer.MatchStatusActive,
	}
}

// ActiveKeyFilter scopes a write to the Active document of a key
func ActiveKeyFilter(key transfer.MatchKey) bson.M {
	return bson.M{
		"Ride_ID":      key.RideID,
		"Matched_ID":   key.MatchedID,
		"Match_Source": key.Source,
		"MatchStatus":  transfer.MatchStatusActive,
	}
}

// WriteModels converts reconciler operations into bulk write models
func WriteModels(operations []matching.MatchOperation) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(operations))

	for _, operation := range operations {
		switch operation.Type {
		case matching.OperationInsert:
			document := *operation.Match
			document.ObjectID = primitive.NilObjectID
			document.MatchStatus = transfer.MatchStatusActive
			document.LastUpdated = operation.Timestamp
			document.OutdatedAt = nil

			models = append(models, mongo.NewInsertOneModel().SetDocument(document))
		case matching.OperationRefresh:
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(ActiveKeyFilter(operation.Key)).
				SetUpdate(bson.M{"$set": bson.M{"last_updated": operation.Timestamp}}))
		case matching.OperationOutdate:
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(ActiveKeyFilter(operation.Key)).
				SetUpdate(bson.M{"$set": bson.M{
					"MatchStatus": transfer.MatchStatusOutdated,
					"outdated_at": operation.Timestamp,
				}}))
		}
	}

	return models
}

func (s *MatchStore) FindActiveMatches(ctx context.Context, rideIDs []string) ([]*transfer.Match, error) {
	collection := database.GetCollection(database.MatchCollection)

	cursor, err := collection.Find(ctx, ActiveMatchesFilter(rideIDs))
	if err != nil {
		return nil, err
	}

	var matches []*transfer.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}

	for _, match := range matches {
		normaliseMatch(match)
	}

	return matches, nil
}

func (s *MatchStore) ApplyMatchOperations(ctx context.Context, operations []matching.MatchOperation) (matching.BulkResult, error) {
	models := WriteModels(operations)
	if len(models) == 0 {
		return matching.BulkResult{}, nil
	}

	collection := database.GetCollection(database.MatchCollection)
	bulkResult, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))

	return summariseBulkWrite(bulkResult, err)
}

// summariseBulkWrite keeps the partial counts of an unordered bulk write. Individual write
// errors are counted and logged, anything else (write concern, network) is returned.
func summariseBulkWrite(bulkResult *mongo.BulkWriteResult, err error) (matching.BulkResult, error) {
	var result matching.BulkResult

	if bulkResult != nil {
		result.InsertedCount = bulkResult.InsertedCount
		result.MatchedCount = bulkResult.MatchedCount
		result.ModifiedCount = bulkResult.ModifiedCount
	}

	if err == nil {
		return result, nil
	}

	var bulkWriteException mongo.BulkWriteException
	if !errors.As(err, &bulkWriteException) || bulkWriteException.WriteConcernError != nil {
		return result, fmt.Errorf("bulk writing matches: %w", err)
	}

	result.FailedCount = len(bulkWriteException.WriteErrors)
	for _, writeError := range bulkWriteException.WriteErrors {
		log.Error().
			Int("index", writeError.Index).
			Int("code", writeError.Code).
			Str("message", writeError.Message).
			Msg("Match write failed")
	}

	return result, nil
}

type ListOptions struct {
	RideID string
	Status transfer.MatchStatus
	Limit  int64
}

// ListMatches returns matches newest first
func (s *MatchStore) ListMatches(ctx context.Context, listOptions ListOptions) ([]*transfer.Match, error) {
	filter := bson.M{}
	if listOptions.RideID != "" {
		filter["Ride_ID"] = listOptions.RideID
	}
	if listOptions.Status != "" {
		filter["MatchStatus"] = listOptions.Status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "last_updated", Value: -1}})
	if listOptions.Limit > 0 {
		findOptions.SetLimit(listOptions.Limit)
	}

	collection := database.GetCollection(database.MatchCollection)
	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}

	var matches []*transfer.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}

	for _, match := range matches {
		normaliseMatch(match)
	}

	return matches, nil
}

func normaliseMatch(match *transfer.Match) {
	match.RideTime = util.NormaliseUTC(match.RideTime)
	match.RideArrival = util.NormaliseUTC(match.RideArrival)
	match.MatchTime = util.NormaliseUTC(match.MatchTime)
	match.MatchArrival = util.NormaliseUTC(match.MatchArrival)
	match.LastUpdated = util.NormaliseUTC(match.LastUpdated)
	if match.OutdatedAt != nil {
		outdatedAt := match.OutdatedAt.UTC()
		match.OutdatedAt = &outdatedAt
	}
}
