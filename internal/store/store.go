// Package store persists users and blog content.
package store

import (
	"errors"
	"fmt"

	"inkpress/internal/apperr"

	"gorm.io/gorm"
)

const nameTaken = "The name has already been taken."

// translate maps gorm errors onto apperr kinds.
func translate(err error, resource, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(conflictMsg)
	default:
		return fmt.Errorf("store: %s: %w", resource, err)
	}
}
