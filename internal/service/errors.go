package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/table-reservation/internal/repository"
)

var (
	// ErrInvalidRequest wraps every validation failure; the wrapped text
	// is safe to show to the caller.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrConflict means a table was taken between planning and commit.
	ErrConflict = errors.New("table no longer available")
	// ErrNotFound is returned for unknown reservations, tables or sections.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable wraps persistence failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// storeErr maps repository errors onto the service taxonomy.  Errors
// that already belong to it pass through untouched.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
