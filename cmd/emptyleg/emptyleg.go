package main

import (
	"os"
	"time"

	"github.com/cityagent/emptyleg/pkg/api"
	"github.com/cityagent/emptyleg/pkg/events"
	matchingcli "github.com/cityagent/emptyleg/pkg/matching/cli"
	statscli "github.com/cityagent/emptyleg/pkg/stats/cli"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	if os.Getenv("EMPTYLEG_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("EMPTYLEG_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "emptyleg",
		Description: "Finds repositioning opportunities between rides and calendar tasks",

		Commands: []*cli.Command{
			matchingcli.RegisterCLI(),
			events.RegisterCLI(),
			statscli.RegisterCLI(),
			api.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
