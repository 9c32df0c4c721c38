package auth

import (
	"errors"

	"github.com/amirasaad/topup/pkg/domain"
	authsvc "github.com/amirasaad/topup/pkg/service/auth"
	"github.com/amirasaad/topup/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, authSvc *authsvc.Service) {
	app.Post("/auth/login", Login(authSvc))
}

// Login handles user authentication and returns a JWT token.
// @Summary User login
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /auth/login [post]
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return err
		}
		u, err := authSvc.Login(c.Context(), input.Email, input.Password)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return common.ProblemDetailsJSON(c, "Invalid email or password", nil, "Email or password is incorrect", fiber.StatusUnauthorized)
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		token, expiresAt, err := authSvc.GenerateToken(u)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			User:      UserDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
		})
	}
}
