// Package middleware protects routes with JWTs and role checks.
package middleware

import (
	"errors"
	"strings"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/service/auth"
	"github.com/amirasaad/topup/webapi/common"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// JwtProtected verifies the bearer token and stores the caller's identity
// for CurrentIdentity.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, _ := c.Locals("user").(*jwt.Token)
			id, err := auth.IdentityFromToken(token)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Unauthorized", err, "Token carries no usable identity")
			}
			c.Locals(identityKey, id)
			return c.Next()
		},
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) || strings.EqualFold(err.Error(), jwtware.ErrJWTMissingOrMalformed.Error()) {
		return common.ProblemDetailsJSON(c, "Bad Request", nil, "Missing or malformed JWT", fiber.StatusBadRequest)
	}
	return common.ProblemDetailsJSON(c, "Unauthorized", nil, "Invalid or expired JWT", fiber.StatusUnauthorized)
}

// AdminOnly rejects callers whose role is not admin. It must run after
// JwtProtected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok || !id.IsAdmin() {
			return common.ProblemDetailsJSON(c, "Forbidden", nil, "Admin role required", fiber.StatusForbidden)
		}
		return c.Next()
	}
}

// CurrentIdentity returns the caller stored by JwtProtected.
func CurrentIdentity(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(identityKey).(auth.Identity)
	return id, ok
}
