package cli

import (
	"context"
	"time"

	"github.com/cityagent/emptyleg/pkg/config"
	"github.com/cityagent/emptyleg/pkg/database"
	"github.com/cityagent/emptyleg/pkg/stats/calculator"
	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Record and match statistics",
		Subcommands: []*cli.Command{
			{
				Name:  "counts",
				Usage: "print record and match collection counts",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if err := database.Connect(); err != nil {
						return err
					}
					defer database.Disconnect()

					ctx, cancel := context.WithTimeout(c.Context, time.Minute)
					defer cancel()

					stats, err := calculator.Calculate(ctx, cfg.Matching.CalendarAPIStatus)
					if err != nil {
						return err
					}

					pretty.Println(stats)

					return nil
				},
			},
		},
	}
}
