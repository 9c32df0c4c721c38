package leaderboard

import (
	leaderboardsvc "github.com/amirasaad/topup/pkg/service/leaderboard"
	"github.com/amirasaad/topup/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, boardSvc *leaderboardsvc.Service) {
	app.Get("/leaderboard", Weekly(boardSvc))
	app.Get("/leaderboard/reset-time", ResetTime(boardSvc))
}

// Weekly returns this week's top spenders.
// @Summary Weekly leaderboard
// @Tags leaderboard
// @Produce json
// @Success 200 {object} common.Response
// @Router /leaderboard [get]
func Weekly(boardSvc *leaderboardsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		board, err := boardSvc.Weekly(c.Context())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load leaderboard", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Leaderboard fetched", board)
	}
}

// ResetTime returns when the current board closes.
// @Summary Leaderboard reset time
// @Tags leaderboard
// @Produce json
// @Success 200 {object} common.Response
// @Router /leaderboard/reset-time [get]
func ResetTime(boardSvc *leaderboardsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Reset time fetched", boardSvc.ResetTime())
	}
}
