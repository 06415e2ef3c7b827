package contracts

import "errors"

var (
	// ErrInvalidEvent is returned when a body is not a CloudEvent envelope
	ErrInvalidEvent = errors.New("contracts: invalid event")

	// ErrMissingEventType is returned for events without a type attribute
	ErrMissingEventType = errors.New("contracts: event type is required")

	// ErrMissingSource is returned when building an event without a source
	ErrMissingSource = errors.New("contracts: event source is required")
)
