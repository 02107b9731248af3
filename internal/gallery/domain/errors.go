package domain

import "errors"

var (
	ErrNotFound     = errors.New("entry not found")
	ErrInvalidEntry = errors.New("invalid entry")
	ErrReadOnly     = errors.New("identity required for writes")
	ErrForbidden    = errors.New("entry belongs to another author")
	ErrReorderState = errors.New("invalid reorder state")
)
