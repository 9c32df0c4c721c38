package catalog

import (
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain/order"
	catalogsvc "github.com/amirasaad/topup/pkg/service/catalog"
	ordersvc "github.com/amirasaad/topup/pkg/service/order"
	"github.com/amirasaad/topup/webapi/common"
	"github.com/amirasaad/topup/webapi/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func Routes(
	app *fiber.App,
	catalogSvc *catalogsvc.Service,
	orderSvc *ordersvc.Service,
	cfg *config.App,
) {
	app.Get("/games", middleware.JwtProtected(cfg.Auth.Jwt), ListGames(catalogSvc))
	app.Get("/games/:id", middleware.JwtProtected(cfg.Auth.Jwt), GetGame(catalogSvc))
	app.Post("/games/:id/validate", middleware.JwtProtected(cfg.Auth.Jwt), ValidateAccount(orderSvc))
}

// ListGames returns the catalog priced for the caller.
// @Summary List games
// @Tags catalog
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /games [get]
// @Security Bearer
func ListGames(catalogSvc *catalogsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		games, err := catalogSvc.ListGames(c.Context(), id.IsAdmin())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list games", err)
		}
		out := make([]GameDTO, 0, len(games))
		for _, g := range games {
			out = append(out, ToGameDTO(g, id.Role))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Games fetched", out)
	}
}

// GetGame returns one game with its packs priced for the caller.
// @Summary Get game
// @Tags catalog
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /games/{id} [get]
// @Security Bearer
func GetGame(catalogSvc *catalogsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		gameID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid game ID", nil, "Game ID must be a UUID")
		}
		g, err := catalogSvc.GetGame(c.Context(), gameID, id.IsAdmin())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Game not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Game fetched", ToGameDTO(g, id.Role))
	}
}

// ValidateAccount asks the game's provider whether the in-game account exists.
// @Summary Validate destination account
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param request body ValidateInput true "Account"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /games/{id}/validate [post]
// @Security Bearer
func ValidateAccount(orderSvc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid game ID", nil, "Game ID must be a UUID")
		}
		input, err := common.BindAndValidate[ValidateInput](c)
		if input == nil {
			return err
		}
		v, err := orderSvc.ValidateAccount(c.Context(), gameID, input.PackID, order.Destination{
			UserID:   input.UserID,
			ServerID: input.ServerID,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Account validation failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account checked", v)
	}
}
