package errors

import "errors"

// Sentinel errors returned by the repository layer. The service translates
// them into the shared AppError taxonomy.
var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")
)
