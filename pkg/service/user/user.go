// Package user creates and looks up accounts. There is no public sign-up;
// operators create accounts from the CLI.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/google/uuid"
)

// minPasswordLength is the shortest password CreateUser accepts.
const minPasswordLength = 8

type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uow: uow, logger: logger.With("service", "user")}
}

// CreateUser stores a new account with a zero balance. Emails are
// compared lower-cased and must be unique.
func (s *Service) CreateUser(ctx context.Context, name, email, password string, role user.Role) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	log := s.logger.With("handler", "CreateUser", "email", email, "role", role)

	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	u, err := user.New(name, email, password, role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err = s.uow.Do(ctx, func(tx repository.UnitOfWork) error {
		users, err := tx.UserRepository()
		if err != nil {
			return err
		}
		if _, err := users.GetByEmail(ctx, email); err == nil {
			return fmt.Errorf("%w: email %s", domain.ErrAlreadyExists, email)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return users.Create(ctx, u)
	})
	if err != nil {
		log.Error("❌ [ERROR] User not created", "error", err)
		return nil, err
	}
	log.Info("✅ [SUCCESS] User created", "user_id", u.ID)
	return u, nil
}

// GetUser returns the account with the given id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	return users.Get(ctx, id)
}

// GetByEmail returns the account registered under email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	return users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
