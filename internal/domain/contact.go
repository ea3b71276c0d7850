package domain

import (
	"context"
	"time"
)

// ContactRetention is how long contact submissions are kept.
const ContactRetention = 7 * 24 * time.Hour

// ContactStatusPending is the status of a new submission.
const ContactStatusPending = "Pending"

// Contact is a message submitted through the contact form.
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone" validate:"required"`
	Subject   string    `json:"subject" validate:"required"`
	Message   string    `json:"message" validate:"required"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactStore persists contact submissions.
type ContactStore interface {
	Create(ctx context.Context, c *Contact) error
	// List returns unexpired submissions, newest first.
	List(ctx context.Context) ([]Contact, error)
}
