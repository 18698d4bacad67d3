package routes

import (
	"context"
	"strconv"

	"github.com/cityagent/emptyleg/pkg/store"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
)

const defaultMatchLimit = 100
const maxMatchLimit = 1000

type MatchLister interface {
	ListMatches(ctx context.Context, listOptions store.ListOptions) ([]*transfer.Match, error)
}

func MatchesRouter(router fiber.Router, lister MatchLister) {
	router.Get("/", listMatches(lister))
	router.Get("/:rideID", getRideMatches(lister))
}

func listMatches(lister MatchLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := parseLimit(c.Query("limit"))
		if err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return respondMatches(c, lister, store.ListOptions{
			Status: transfer.MatchStatus(c.Query("status")),
			Limit:  limit,
		})
	}
}

func getRideMatches(lister MatchLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respondMatches(c, lister, store.ListOptions{
			RideID: c.Params("rideID"),
			Status: transfer.MatchStatus(c.Query("status", string(transfer.MatchStatusActive))),
		})
	}
}

func respondMatches(c *fiber.Ctx, lister MatchLister, listOptions store.ListOptions) error {
	matches, err := lister.ListMatches(c.UserContext(), listOptions)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load matches",
		})
	}

	groups := []string{"basic"}
	if c.QueryBool("detailed") {
		groups = append(groups, "detailed")
	}

	matchesReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, matches)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce matches",
		})
	}

	return c.JSON(matchesReduced)
}

func parseLimit(value string) (int64, error) {
	if value == "" {
		return defaultMatchLimit, nil
	}

	limit, err := strconv.ParseInt(value, 10, 64)
	if err != nil || limit <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "limit must be a positive number")
	}
	if limit > maxMatchLimit {
		limit = maxMatchLimit
	}

	return limit, nil
}
