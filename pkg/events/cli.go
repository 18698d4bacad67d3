package events

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cityagent/emptyleg/pkg/config"
	"github.com/cityagent/emptyleg/pkg/consumer"
	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/redis_client"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Match event queue tooling",
		Subcommands: []*cli.Command{
			{
				Name:  "notify",
				Usage: "run the match event notify consumer",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: ":3333",
						Usage: "listen address for the queue stats server",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					redisConsumer := consumer.RedisConsumer{
						QueueName:       cfg.Events.QueueName,
						NumberConsumers: 2,
						BatchSize:       20,
						Timeout:         2 * time.Second,
						Consumer:        NewNotifyBatchConsumer(),
						StatsListen:     c.String("stats-listen"),
					}
					if err := redisConsumer.Setup(); err != nil {
						return err
					}

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "test-event",
				Usage: "publish a test match event",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					publisher, err := NewQueuePublisher(redis_client.QueueConnection, cfg.Events.QueueName)
					if err != nil {
						return err
					}

					now := time.Now().UTC()
					event := &transfer.Event{
						Type:      transfer.EventTypeMatchCreated,
						Timestamp: now,
						Body: transfer.Match{
							RideID:         "TEST-RIDE",
							MatchedID:      "TEST-TASK",
							MatchSource:    transfer.RecordFamilyCalendar,
							MatchDirection: transfer.DirectionHomeReturn,
							MatchStatus:    transfer.MatchStatusActive,
							LastUpdated:    now,
						},
					}

					if err := publisher.Publish(event); err != nil {
						return err
					}

					log.Info().Str("queue", cfg.Events.QueueName).Msg("Published test event")

					return nil
				},
			},
		},
	}
}
