package calculator

import (
	"context"
	"time"

	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

type RecordStatsData struct {
	Rides    RecordStats
	Calendar RecordStats
	Matches  MatchStats

	Timestamp time.Time
}

// Calculate gathers record and match statistics concurrently
func Calculate(ctx context.Context, calendarAPIStatus string) (RecordStatsData, error) {
	data := RecordStatsData{
		Timestamp: time.Now().UTC(),
	}

	p := pool.New().WithErrors().WithContext(ctx)

	p.Go(func(ctx context.Context) error {
		var err error
		data.Rides, err = GetRecordStats(ctx, transfer.RecordFamilyRide, calendarAPIStatus)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		data.Calendar, err = GetRecordStats(ctx, transfer.RecordFamilyCalendar, calendarAPIStatus)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		data.Matches, err = GetMatchStats(ctx)
		return err
	})

	if err := p.Wait(); err != nil {
		log.Error().Err(err).Msg("Failed to calculate stats")
		return data, err
	}

	return data, nil
}
