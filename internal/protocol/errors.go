package protocol

import "errors"

// Domain errors for the data-point codec.
var (
	// ErrMalformedPayload is returned when a payload cannot be parsed
	// against its schema. The accompanying message value is zero-valued
	// and safe to use.
	ErrMalformedPayload = errors.New("protocol: malformed payload")

	// ErrEmptyPayload is returned when a payload is empty. Decoders treat
	// this as "no data yet" and return a zero-valued message.
	ErrEmptyPayload = errors.New("protocol: empty payload")

	// ErrUnknownCleanSpeed is returned when a clean-speed name is not in
	// the vendor speed vocabulary.
	ErrUnknownCleanSpeed = errors.New("protocol: unknown clean speed")
)
