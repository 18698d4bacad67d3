package calculator

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CountAggregate groups the documents matching filter by aggregateKey and counts each group
func CountAggregate(ctx context.Context, collection *mongo.Collection, filter bson.M, aggregateKey string) (map[string]int, error) {
	countMap := map[string]int{}

	aggregation := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{
			{Key: "$group",
				Value: bson.D{
					{Key: "_id", Value: aggregateKey},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				},
			},
		},
	}

	cursor, err := collection.Aggregate(ctx, aggregation)
	if err != nil {
		return nil, err
	}

	var result []bson.M
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}

	for _, record := range result {
		countMap[groupName(record["_id"])] += countValue(record["count"])
	}

	return countMap, nil
}

func groupName(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "none"
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func countValue(value interface{}) int {
	switch v := value.(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	}

	return 0
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, count := range counts {
		total += count
	}

	return total
}
