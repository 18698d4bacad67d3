package api

import (
	"github.com/cityagent/emptyleg/pkg/api/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewApp(matches routes.MatchLister, stats routes.StatsCalculator) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	webApp.Get("/version", routes.APIVersion)
	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	routes.MatchesRouter(webApp.Group("/matches"), matches)
	webApp.Get("/stats", routes.Stats(stats))

	return webApp
}

func SetupServer(listen string, matches routes.MatchLister, stats routes.StatsCalculator) error {
	return NewApp(matches, stats).Listen(listen)
}
