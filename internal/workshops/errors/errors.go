package errors

import "errors"

var (
	ErrNotFound = errors.New("workshop not found")

	ErrInvalidID = errors.New("invalid workshop ID format")

	ErrSessionNotFound = errors.New("session not found in workshop")

	ErrMaxSpotsBelowBooked = errors.New("max spots below seats already booked")
)
