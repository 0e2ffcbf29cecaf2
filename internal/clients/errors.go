package clients

import "errors"

var (
	// ErrNotFound indicates the client does not exist.
	ErrNotFound = errors.New("clients: client not found")

	// ErrInvalidName indicates a missing or blank name.
	ErrInvalidName = errors.New("clients: name is required")

	// ErrMissingContact indicates neither email nor phone was provided.
	ErrMissingContact = errors.New("clients: email or phone is required")

	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("clients: status must be active or archived")
)
