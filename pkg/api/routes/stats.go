package routes

import (
	"context"

	"github.com/cityagent/emptyleg/pkg/stats/calculator"
	"github.com/gofiber/fiber/v2"
)

type StatsCalculator func(ctx context.Context) (calculator.RecordStatsData, error)

func Stats(calculate StatsCalculator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := calculate(c.UserContext())
		if err != nil {
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Could not calculate stats",
			})
		}

		return c.JSON(stats)
	}
}
