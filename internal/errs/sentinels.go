// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Registry transition errors.
var (
	// ErrCannotTransferToSelf indicates a transfer whose recipient is the current claimer.
	ErrCannotTransferToSelf = errors.New("cannot transfer to self")

	// ErrUnauthorizedAccount indicates an attestation by a principal other than the type's authority.
	ErrUnauthorizedAccount = errors.New("unauthorized account")

	// ErrNotOwner indicates a transfer attempted by someone other than the current claimer.
	ErrNotOwner = errors.New("caller is not the claimer")

	// ErrTypeMismatch indicates a property that is not registered under the supplied type.
	ErrTypeMismatch = errors.New("property type mismatch")

	// ErrSuperseded indicates a property retired by an earlier transfer.
	ErrSuperseded = errors.New("property superseded")
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., property id taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates malformed input (empty ids, bad content address).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
