// Package clients manages the clinic's client records.
package clients

import "strings"

// Client represents one client of the practice.
type Client struct {
	ID        string `dynamodbav:"id" json:"id"`
	Name      string `dynamodbav:"name" json:"name"`
	Email     string `dynamodbav:"email" json:"email,omitempty"`
	Phone     string `dynamodbav:"phone" json:"phone,omitempty"`
	Notes     string `dynamodbav:"notes" json:"notes,omitempty"`
	Status    string `dynamodbav:"status" json:"status"`
	CreatedAt string `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt string `dynamodbav:"updatedAt" json:"updated_at"`
}

// Client status values.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// CreateClientRequest is the request body for creating a client.
type CreateClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

// Validate validates the create client request.
func (r *CreateClientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

// UpdateClientRequest is the request body for updating a client. Nil fields
// are left unchanged.
type UpdateClientRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Notes  *string `json:"notes"`
	Status *string `json:"status"`
}

// Validate validates the update request.
func (r *UpdateClientRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrInvalidName
	}
	if r.Status != nil && *r.Status != StatusActive && *r.Status != StatusArchived {
		return ErrInvalidStatus
	}
	return nil
}
