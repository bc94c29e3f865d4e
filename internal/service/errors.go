package service

import (
	"errors"
	"fmt"

	"github.com/gritto/gritto/internal/apperror"
)

// lookupErr maps a repository miss onto a not-found error for entity.
func lookupErr(err, notFound error, entity string) error {
	if errors.Is(err, notFound) {
		return apperror.NotFound(entity)
	}
	return fmt.Errorf("load %s: %w", entity, err)
}

// ensureOwner rejects access to records owned by someone else.
func ensureOwner(entity, ownerID, userID string) error {
	if ownerID != userID {
		return apperror.Forbidden(entity)
	}
	return nil
}
