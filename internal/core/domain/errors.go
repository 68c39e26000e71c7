package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTemporary    = errors.New("temporary failure")
)

// Request-level conditions surfaced to callers. Each one carries a kind so the
// transport can map it without knowing about the individual sentinel.
var (
	ErrRoleNotMapped     = fmt.Errorf("role not mapped: %w", ErrInvalidInput)
	ErrNoResultsForScope = fmt.Errorf("no results for scope: %w", ErrNotFound)
	ErrInvalidSource     = fmt.Errorf("reindex source must be 'seed' or 'db': %w", ErrInvalidInput)
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
