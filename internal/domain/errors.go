package domain

import "errors"

var (
	// ErrNotFound is returned when the requested offering or attempt does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrNotAvailable is returned when an offering is not Active at decision time.
	ErrNotAvailable = errors.New("offering not available")
	// ErrPaymentRequired is returned when a paid offering is requested without a
	// confirmed attempt behind the presented watch token.
	ErrPaymentRequired = errors.New("payment required")
	// ErrPrematureConfirmation is returned when confirm is called before the
	// attempt's unlock instant, regardless of what the client UI allowed.
	ErrPrematureConfirmation = errors.New("confirmation attempted before unlock")
	// ErrUnauthorized is the access guard denial.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCollaboratorFailure wraps catalog, identity and settlement call failures.
	ErrCollaboratorFailure = errors.New("collaborator failure")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAttemptClosed       = errors.New("payment attempt already closed")
)
