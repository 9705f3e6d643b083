package repositories

import (
	"errors"
	"strings"

	domainerrors "actdone.backend/internal/domain/errors"
	"gorm.io/gorm"
)

// translateError maps driver errors onto domain errors. Unique violations are
// matched by text too, for connections opened without TranslateError.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainerrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainerrors.ErrAlreadyExists
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return domainerrors.ErrAlreadyExists
	}
	return err
}
