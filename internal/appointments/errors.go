package appointments

import "errors"

var (
	// ErrNotFound indicates the appointment does not exist.
	ErrNotFound = errors.New("appointments: appointment not found")

	// ErrMissingClient indicates no client name was provided.
	ErrMissingClient = errors.New("appointments: client_name is required")

	// ErrInvalidDate indicates a missing or non-RFC3339 session timestamp.
	ErrInvalidDate = errors.New("appointments: date_of_session must be RFC 3339")

	// ErrInvalidDuration indicates a non-positive duration.
	ErrInvalidDuration = errors.New("appointments: duration must be positive minutes")

	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("appointments: status must be tentative, confirmed, completed or cancelled")
)

// IsValidationErr reports whether an error maps to HTTP 400.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrMissingClient) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidStatus)
}
