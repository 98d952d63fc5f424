package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/book_api/internal/repo"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("service unavailable")
	ErrValidation   = errors.New("validation failed")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// storeErr classifies a repository error for op. Missing rows become ErrNotFound,
// uniqueness violations ErrConflict, everything else ErrUnavailable.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repo.ErrDuplicate):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return unavailable(op, err)
}
