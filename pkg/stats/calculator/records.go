package calculator

import (
	"context"

	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/store"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"go.mongodb.org/mongo-driver/bson"
)

type RecordStats struct {
	Total    int
	Analyzed int
	Pending  int

	Statuses map[string]int
}

func GetRecordStats(ctx context.Context, family transfer.RecordFamily, calendarAPIStatus string) (RecordStats, error) {
	collection := database.GetCollection(store.CollectionFor(family))

	statuses, err := CountAggregate(ctx, collection, bson.M{}, "$Status")
	if err != nil {
		return RecordStats{}, err
	}

	analyzed, err := collection.CountDocuments(ctx, bson.M{"MatchAnalyzed": true})
	if err != nil {
		return RecordStats{}, err
	}

	pending, err := collection.CountDocuments(ctx, store.UnmatchedFilter(family, calendarAPIStatus))
	if err != nil {
		return RecordStats{}, err
	}

	return RecordStats{
		Total:    sumCounts(statuses),
		Analyzed: int(analyzed),
		Pending:  int(pending),
		Statuses: statuses,
	}, nil
}
