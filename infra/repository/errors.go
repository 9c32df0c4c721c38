package repository

import (
	"errors"

	"github.com/amirasaad/topup/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors to domain errors so that
// database details stay inside the infrastructure layer.
func MapGormErrorToDomain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrAlreadyExists
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	}
	return err
}

// mapNotFound is MapGormErrorToDomain with an entity-specific not-found error.
func mapNotFound(err error, notFound error) error {
	mapped := MapGormErrorToDomain(err)
	if errors.Is(mapped, domain.ErrNotFound) {
		return notFound
	}
	return mapped
}

// WrapError wraps a GORM operation and maps its error.
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(m).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
