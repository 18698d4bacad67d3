package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RidesCollection         = "enriched_rides"
	CalendarCollection      = "calendar_tasks"
	MatchCollection         = "match_data"
	DistanceCacheCollection = "distance_cache"
)

func createIndexes() {
	createRecordIndexes(RidesCollection)
	createRecordIndexes(CalendarCollection)
	createMatchIndexes()
	createDistanceCacheIndexes()
}

func createRecordIndexes(collectionName string) {
	collection := GetCollection(collectionName)
	_, err := collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ID", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "MatchAnalyzed", Value: 1},
				{Key: "Status", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "API_Status", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Str("collection", collectionName).Msg("Creating Index")
	}
}

func createMatchIndexes() {
	collection := GetCollection(MatchCollection)
	_, err := collection.Indexes().CreateMany(context.Background(), matchIndexModels(), options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Str("collection", MatchCollection).Msg("Creating Index")
	}
}

// matchIndexModels includes a unique index over the key of Active matches, so two processes
// inserting the same new match leave one Active document and a counted write error.
func matchIndexModels() []mongo.IndexModel {
	matchKeyIndexName := "MatchKeyStatus"
	activeMatchKeyIndexName := "ActiveMatchKey"

	return []mongo.IndexModel{
		{
			Options: &options.IndexOptions{
				Name: &matchKeyIndexName,
			},
			Keys: bson.D{
				{Key: "Ride_ID", Value: 1},
				{Key: "Matched_ID", Value: 1},
				{Key: "Match_Source", Value: 1},
				{Key: "MatchStatus", Value: 1},
			},
		},
		{
			Options: options.Index().
				SetName(activeMatchKeyIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"MatchStatus": "Active"}),
			Keys: bson.D{
				{Key: "Ride_ID", Value: 1},
				{Key: "Matched_ID", Value: 1},
				{Key: "Match_Source", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "MatchStatus", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "last_updated", Value: -1}},
		},
	}
}

func createDistanceCacheIndexes() {
	distanceKeyIndexName := "DistanceCacheKey"

	collection := GetCollection(DistanceCacheCollection)
	_, err := collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Options: &options.IndexOptions{
				Name: &distanceKeyIndexName,
			},
			Keys: bson.D{
				{Key: "StartLat", Value: 1},
				{Key: "StartLon", Value: 1},
				{Key: "EndLat", Value: 1},
				{Key: "EndLon", Value: 1},
				{Key: "Source", Value: 1},
			},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Str("collection", DistanceCacheCollection).Msg("Creating Index")
	}
}
