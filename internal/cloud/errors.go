package cloud

import "errors"

// Domain errors for the cloud collaborator.
var (
	// ErrAuthFailed is returned when the vendor rejects the account
	// credentials or omits an access token from the login response.
	ErrAuthFailed = errors.New("cloud: authentication failed")

	// ErrNotLoggedIn is returned when an operation requiring a session is
	// called before Login has succeeded.
	ErrNotLoggedIn = errors.New("cloud: not logged in")

	// ErrRequestFailed is returned when the vendor answers with an
	// unexpected HTTP status.
	ErrRequestFailed = errors.New("cloud: request failed")

	// ErrMalformedResponse is returned when a response body cannot be
	// interpreted. Distinct from an empty device list, which is a valid
	// answer.
	ErrMalformedResponse = errors.New("cloud: malformed response")

	// ErrDeviceNotFound is returned when a device snapshot is requested
	// for a serial the account does not own.
	ErrDeviceNotFound = errors.New("cloud: device not found")
)
