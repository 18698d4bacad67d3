package calculator

import (
	"context"

	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"go.mongodb.org/mongo-driver/bson"
)

type MatchStats struct {
	Total  int
	Active int

	Statuses   map[string]int
	Directions map[string]int
	Sources    map[string]int

	DoubleUtilized int
	CalendarPairs  int
}

func GetMatchStats(ctx context.Context) (MatchStats, error) {
	collection := database.GetCollection(database.MatchCollection)
	active := bson.M{"MatchStatus": transfer.MatchStatusActive}

	statuses, err := CountAggregate(ctx, collection, bson.M{}, "$MatchStatus")
	if err != nil {
		return MatchStats{}, err
	}

	directions, err := CountAggregate(ctx, collection, active, "$Match_Direction")
	if err != nil {
		return MatchStats{}, err
	}

	sources, err := CountAggregate(ctx, collection, active, "$Match_Source")
	if err != nil {
		return MatchStats{}, err
	}

	doubleUtilized, err := collection.CountDocuments(ctx, bson.M{
		"MatchStatus":    transfer.MatchStatusActive,
		"DoubleUtilized": true,
	})
	if err != nil {
		return MatchStats{}, err
	}

	calendarPairs, err := collection.CountDocuments(ctx, bson.M{
		"MatchStatus":       transfer.MatchStatusActive,
		"CalendarMatchPair": bson.M{"$exists": true, "$ne": ""},
	})
	if err != nil {
		return MatchStats{}, err
	}

	return MatchStats{
		Total:          sumCounts(statuses),
		Active:         statuses[string(transfer.MatchStatusActive)],
		Statuses:       statuses,
		Directions:     directions,
		Sources:        sources,
		DoubleUtilized: int(doubleUtilized),
		CalendarPairs:  int(calendarPairs),
	}, nil
}
