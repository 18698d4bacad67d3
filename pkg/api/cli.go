package api

import (
	"context"

	"github.com/cityagent/emptyleg/pkg/config"
	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/stats/calculator"
	"github.com/cityagent/emptyleg/pkg/store"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Provides the read only match API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
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
					defer database.Disconnect()

					calculate := func(ctx context.Context) (calculator.RecordStatsData, error) {
						return calculator.Calculate(ctx, cfg.Matching.CalendarAPIStatus)
					}

					return SetupServer(c.String("listen"), &store.MatchStore{}, calculate)
				},
			},
		},
	}
}
