package matching

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cityagent/emptyleg/pkg/config"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/rs/zerolog/log"
)

type RecordStore interface {
	// FetchUnmatched returns resolved, non-removed records that have not been analysed yet
	FetchUnmatched(ctx context.Context, family transfer.RecordFamily) ([]*transfer.Record, error)
	// FetchActive returns every resolved, non-removed record regardless of the analysed flag
	FetchActive(ctx context.Context, family transfer.RecordFamily) ([]*transfer.Record, error)
	MarkAnalyzed(ctx context.Context, family transfer.RecordFamily, ids []string) error
	ResetAnalyzed(ctx context.Context, family transfer.RecordFamily) (int64, error)
}

// Cycle drives fetch, match, reconcile and flag updates on an interval
type Cycle struct {
	Records     RecordStore
	Finder      *Finder
	SelfMatcher *SelfMatcher
	Reconciler  *Reconciler
	Filter      *RecordFilter
	Reports     ReportSink

	Config config.MatchingConfig

	Now func() time.Time
}

func (c *Cycle) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}

	return c.Now().UTC()
}

// Run loops until the context is cancelled. A failed cycle is logged and followed by the error backoff.
func (c *Cycle) Run(ctx context.Context) error {
	for {
		report, err := c.RunOnce(ctx)

		var sleep time.Duration
		if err != nil {
			log.Error().Err(err).Msg("Match cycle failed")
			sleep = c.Config.ErrorBackoff.Duration()
		} else if report.Idle {
			log.Info().Dur("sleep", c.Config.IdleInterval.Duration()).Msg("No new rides or calendar tasks to analyse")
			sleep = c.Config.IdleInterval.Duration()
		} else {
			sleep = c.Config.CycleInterval.Duration() - report.Duration
		}

		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// RunOnce performs a single cycle. Panics are converted into errors.
func (c *Cycle) RunOnce(ctx context.Context) (report CycleReport, err error) {
	started := time.Now()
	report.StartedAt = c.now()

	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("match cycle panic: %v\n%s", recovered, debug.Stack())
		}

		report.Duration = time.Since(started)
		if err != nil {
			report.Error = err.Error()
			CyclesTotal.WithLabelValues("error").Inc()
		} else if report.Idle {
			CyclesTotal.WithLabelValues("idle").Inc()
		} else {
			CyclesTotal.WithLabelValues("matched").Inc()
			CycleDuration.Observe(report.Duration.Seconds())
		}

		if c.Reports != nil {
			c.Reports.Record(report)
		}
	}()

	err = c.runCycle(ctx, &report)

	return report, err
}

func (c *Cycle) runCycle(ctx context.Context, report *CycleReport) error {
	// FETCH_UNMATCHED
	unmatchedRides, err := c.Records.FetchUnmatched(ctx, transfer.RecordFamilyRide)
	if err != nil {
		return fmt.Errorf("fetching unmatched rides: %w", err)
	}
	unmatchedCalendar, err := c.Records.FetchUnmatched(ctx, transfer.RecordFamilyCalendar)
	if err != nil {
		return fmt.Errorf("fetching unmatched calendar tasks: %w", err)
	}

	report.UnmatchedRides = len(unmatchedRides)
	report.UnmatchedCalendar = len(unmatchedCalendar)

	if len(unmatchedRides) == 0 && len(unmatchedCalendar) == 0 {
		report.Idle = true
		return nil
	}

	log.Info().
		Int("rides", len(unmatchedRides)).
		Int("calendar", len(unmatchedCalendar)).
		Msg("Match cycle started")

	// FETCH_ACTIVE_UNIVERSE
	activeRides, err := c.Records.FetchActive(ctx, transfer.RecordFamilyRide)
	if err != nil {
		return fmt.Errorf("fetching active rides: %w", err)
	}
	activeCalendar, err := c.Records.FetchActive(ctx, transfer.RecordFamilyCalendar)
	if err != nil {
		return fmt.Errorf("fetching active calendar tasks: %w", err)
	}

	// SELF_MATCH_CALENDAR sees every calendar task, double bookings outside the record filter still count
	calendarPairs := c.SelfMatcher.FindPairs(activeCalendar)
	report.CalendarPairs = len(calendarPairs)

	activeRides = c.Filter.Apply(activeRides)
	candidateCalendar := c.Filter.Apply(activeCalendar)

	report.ActiveRides = len(activeRides)
	report.ActiveCalendar = len(candidateCalendar)

	// RUN_MATCH_FINDER
	groups := c.Finder.FindMatches(ctx, activeRides, candidateCalendar)
	report.Groups = len(groups)

	// FLATTEN_AND_ANNOTATE
	proposals := Flatten(groups, c.now())
	AnnotateCalendarPairs(proposals, calendarPairs)
	report.Proposals = len(proposals)
	ProposalsLastCycle.Set(float64(len(proposals)))

	// RECONCILE
	evaluated := make([]string, 0, len(activeRides))
	for _, ride := range activeRides {
		evaluated = append(evaluated, ride.ID)
	}

	result, err := c.Reconciler.Reconcile(ctx, proposals, evaluated, c.now())
	if err != nil {
		return fmt.Errorf("reconciling matches: %w", err)
	}
	observeReconcile(result)

	report.Inserted = result.Inserted
	report.Refreshed = result.Refreshed
	report.Outdated = result.Outdated
	report.Failed = result.Bulk.FailedCount

	// MARK_ANALYZED
	if err := c.Records.MarkAnalyzed(ctx, transfer.RecordFamilyRide, recordIDs(unmatchedRides)); err != nil {
		return fmt.Errorf("marking rides analysed: %w", err)
	}
	if err := c.Records.MarkAnalyzed(ctx, transfer.RecordFamilyCalendar, recordIDs(unmatchedCalendar)); err != nil {
		return fmt.Errorf("marking calendar tasks analysed: %w", err)
	}

	log.Info().
		Int("groups", report.Groups).
		Int("proposals", report.Proposals).
		Int("calendarPairs", report.CalendarPairs).
		Msg("Match cycle complete")

	return nil
}

func recordIDs(records []*transfer.Record) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	return ids
}
