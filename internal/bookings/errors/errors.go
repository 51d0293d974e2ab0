package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrAlreadyCancelled = errors.New("booking already cancelled")

	ErrWorkshopNotFound = errors.New("workshop not found")

	ErrSessionNotFound = errors.New("session not found in workshop")

	ErrCapacityFull = errors.New("session has no available spots")
)
