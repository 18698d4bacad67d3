package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cityagent/emptyleg/pkg/config"
	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/distance"
	"github.com/cityagent/emptyleg/pkg/elastic_client"
	"github.com/cityagent/emptyleg/pkg/events"
	"github.com/cityagent/emptyleg/pkg/matching"
	"github.com/cityagent/emptyleg/pkg/redis_client"
	"github.com/cityagent/emptyleg/pkg/store"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/gocarina/gocsv"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slices"
)

type engine struct {
	config  config.Config
	records *store.RecordStore
	matches *store.MatchStore
	cycle   *matching.Cycle
}

// setup connects the backing services and assembles a match cycle from them.
// Redis and Elasticsearch are optional, the cycle runs without events, the cache front layer and reports.
func setup() (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := elastic_client.Connect(); err != nil {
		log.Warn().Err(err).Msg("Continuing without Elasticsearch")
	}

	caches := []distance.Cache{}
	var publisher matching.EventPublisher

	if err := redis_client.Connect(); err != nil {
		log.Warn().Err(err).Msg("Continuing without Redis, match events and the routing cache front layer are disabled")
	} else {
		caches = append(caches, distance.NewRedisCache(redis_client.Client, cfg.Routing.CacheTTL.Duration()))

		queuePublisher, err := events.NewQueuePublisher(redis_client.QueueConnection, cfg.Events.QueueName)
		if err != nil {
			return nil, err
		}
		publisher = queuePublisher
	}
	caches = append(caches, &store.DistanceCache{})

	router, err := distance.NewRouter(cfg.Routing)
	if err != nil {
		return nil, err
	}
	if router == nil {
		log.Warn().Msg("No routing provider configured, uncached pairs fall back to geodesic distance")
	}

	filter, err := matching.NewRecordFilter(cfg.Matching.RecordFilter)
	if err != nil {
		return nil, err
	}

	records := &store.RecordStore{CalendarAPIStatus: cfg.Matching.CalendarAPIStatus}
	matches := &store.MatchStore{}

	oracle := &distance.CachedOracle{
		Caches: caches,
		Router: router,
	}

	return &engine{
		config:  cfg,
		records: records,
		matches: matches,
		cycle: &matching.Cycle{
			Records:     records,
			Finder:      matching.NewFinder(oracle, cfg.Matching),
			SelfMatcher: &matching.SelfMatcher{Config: cfg.Matching},
			Reconciler: &matching.Reconciler{
				Store:     matches,
				Publisher: publisher,
			},
			Filter:  filter,
			Reports: matching.ElasticReportSink{},
			Config:  cfg.Matching,
		},
	}, nil
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Empty leg match engine",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the match cycle until interrupted",
				Action: func(c *cli.Context) error {
					engine, err := setup()
					if err != nil {
						return err
					}
					defer database.Disconnect()

					ctx, cancel := context.WithCancel(c.Context)
					defer cancel()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					go func() {
						<-signals // wait for signal
						log.Info().Msg("Stopping match cycle")
						cancel()

						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					log.Info().
						Dur("interval", engine.config.Matching.CycleInterval.Duration()).
						Str("routing", engine.config.Routing.Provider).
						Msg("Starting match cycle")

					err = engine.cycle.Run(ctx)
					elastic_client.Close()

					if err == context.Canceled {
						return nil
					}
					return err
				},
			},
			{
				Name:  "once",
				Usage: "run a single match cycle",
				Action: func(c *cli.Context) error {
					engine, err := setup()
					if err != nil {
						return err
					}
					defer database.Disconnect()

					report, err := engine.cycle.RunOnce(c.Context)
					elastic_client.Close()
					if err != nil {
						return err
					}

					pretty.Println(report)

					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "clear the analysed flag on every ride and calendar task",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := database.Connect(); err != nil {
						return err
					}
					defer database.Disconnect()

					records := &store.RecordStore{CalendarAPIStatus: cfg.Matching.CalendarAPIStatus}

					for _, family := range []transfer.RecordFamily{transfer.RecordFamilyRide, transfer.RecordFamilyCalendar} {
						modified, err := records.ResetAnalyzed(c.Context, family)
						if err != nil {
							return err
						}

						log.Info().Str("family", string(family)).Int64("modified", modified).Msg("Reset analysed flag")
					}

					return nil
				},
			},
			{
				Name:  "inspect",
				Usage: "print the candidates of a single ride without persisting anything",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ride",
						Usage:    "ride ID to inspect",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					engine, err := setup()
					if err != nil {
						return err
					}
					defer database.Disconnect()

					return inspect(c.Context, engine, c.String("ride"), os.Stdout)
				},
			},
			{
				Name:  "export",
				Usage: "export matches as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "output file, defaults to stdout",
					},
					&cli.StringFlag{
						Name:  "status",
						Value: string(transfer.MatchStatusActive),
						Usage: "match status to export, empty for all",
					},
					&cli.StringFlag{
						Name:  "ride",
						Usage: "only export matches of this ride",
					},
					&cli.Int64Flag{
						Name:  "limit",
						Usage: "maximum number of matches, 0 for no limit",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					defer database.Disconnect()

					ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
					defer cancel()

					matchStore := &store.MatchStore{}
					matches, err := matchStore.ListMatches(ctx, store.ListOptions{
						RideID: c.String("ride"),
						Status: transfer.MatchStatus(c.String("status")),
						Limit:  c.Int64("limit"),
					})
					if err != nil {
						return err
					}

					var out io.Writer = os.Stdout
					if path := c.String("output"); path != "" {
						file, err := os.Create(path)
						if err != nil {
							return err
						}
						defer file.Close()
						out = file
					}

					if err := gocsv.Marshal(matches, out); err != nil {
						return err
					}

					log.Info().Int("matches", len(matches)).Msg("Exported matches")

					return nil
				},
			},
		},
	}
}

func inspect(ctx context.Context, engine *engine, rideID string, out io.Writer) error {
	rides, err := engine.records.FetchActive(ctx, transfer.RecordFamilyRide)
	if err != nil {
		return err
	}
	calendar, err := engine.records.FetchActive(ctx, transfer.RecordFamilyCalendar)
	if err != nil {
		return err
	}

	rides = engine.cycle.Filter.Apply(rides)
	calendar = engine.cycle.Filter.Apply(calendar)

	var ride *transfer.Record
	for _, record := range rides {
		if record.ID == rideID {
			ride = record
			break
		}
	}
	if ride == nil {
		return fmt.Errorf("ride %s is not active", rideID)
	}

	var groups []matching.MatchGroup
	for _, group := range engine.cycle.Finder.FindMatches(ctx, rides, calendar) {
		if group.RideID == rideID {
			groups = append(groups, group)
		}
	}
	pairs := engine.cycle.SelfMatcher.FindPairs(calendar)

	proposals := matching.Flatten(groups, time.Now().UTC())
	matching.AnnotateCalendarPairs(proposals, pairs)

	slices.SortFunc(proposals, func(a, b *transfer.Match) int {
		return a.TimeDifferenceMin - b.TimeDifferenceMin
	})

	pretty.Fprintf(out, "%# v\n", ride)

	for _, proposal := range proposals {
		fmt.Fprintf(out, "%s %s %s wait %d minutes, %s / %s, %s\n",
			proposal.MatchSource,
			proposal.MatchedID,
			proposal.MatchTime.Format(time.RFC3339),
			proposal.TimeDifferenceMin,
			distance.FormatDistance(proposal.RealDistanceKm*1000),
			distance.FormatDuration(float64(proposal.RealDurationMin)*60),
			proposal.MatchDirection,
		)
	}

	existing, err := engine.matches.FindActiveMatches(ctx, []string{rideID})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d proposals, %d active persisted matches\n", len(proposals), len(existing))

	return nil
}
