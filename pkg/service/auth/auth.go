// Package auth checks credentials and issues the JWTs that carry the
// caller's identity and role to every protected route.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/amirasaad/topup/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// dummyHash is compared against when the user does not exist, so unknown
// and known emails take the same time to reject.
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

// Claim names.
const (
	ClaimUserID = "user_id"
	ClaimRole   = "role"
	ClaimEmail  = "email"
)

type Service struct {
	uow    repository.UnitOfWork
	cfg    *config.Jwt
	logger *slog.Logger
	now    func() time.Time
}

func New(uow repository.UnitOfWork, cfg *config.Jwt, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uow: uow, cfg: cfg, logger: logger.With("service", "auth"), now: time.Now}
}

// Login returns the user whose email and password match.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	log := s.logger.With("handler", "Login", "email", email)
	email = strings.TrimSpace(strings.ToLower(email))
	if !utils.IsEmail(email) || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		_ = utils.CheckPasswordHash(password, dummyHash)
		log.Warn("❌ [ERROR] Login failed")
		return nil, domain.ErrInvalidCredential
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		log.Warn("❌ [ERROR] Login failed", "user_id", u.ID)
		return nil, domain.ErrInvalidCredential
	}
	log.Info("✅ [SUCCESS] Login", "user_id", u.ID)
	return u, nil
}

// GenerateToken signs an HS256 token for u valid for the configured expiry.
func (s *Service) GenerateToken(u *user.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.Expiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		ClaimUserID: u.ID.String(),
		ClaimRole:   string(u.Role),
		ClaimEmail:  u.Email,
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Role   user.Role
}

// IsAdmin reports whether the caller may use admin routes.
func (i Identity) IsAdmin() bool { return i.Role == user.RoleAdmin }

// IdentityFromToken reads the caller from a verified token.
func IdentityFromToken(token *jwt.Token) (Identity, error) {
	if token == nil {
		return Identity{}, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, domain.ErrUnauthorized
	}
	raw, _ := claims[ClaimUserID].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad %s claim", domain.ErrUnauthorized, ClaimUserID)
	}
	role, _ := claims[ClaimRole].(string)
	if !user.Role(role).Valid() {
		return Identity{}, fmt.Errorf("%w: bad %s claim", domain.ErrUnauthorized, ClaimRole)
	}
	return Identity{UserID: id, Role: user.Role(role)}, nil
}
