package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrDuplicateCode = errors.New("confirmation code already in use")

	// ErrNotConfirmed means a conditional update found the record but it had
	// already left the CONFIRMED state.
	ErrNotConfirmed = errors.New("reservation is no longer confirmed")

	// ErrLockHeld means another writer owns the slot lock right now.
	ErrLockHeld = errors.New("slot lock is held by another writer")

	ErrLockTimeout = errors.New("timed out waiting for slot lock")
)
