package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/validation"
)

// ContactService stores contact form submissions.
type ContactService interface {
	Submit(ctx context.Context, input domain.Contact) (*domain.Contact, error)

	// List returns unexpired submissions, newest first.
	List(ctx context.Context) ([]domain.Contact, error)
}

type contactService struct {
	contacts domain.ContactStore
	logger   *slog.Logger
}

// NewContactService creates a new ContactService instance
func NewContactService(contacts domain.ContactStore, logger *slog.Logger) ContactService {
	return &contactService{contacts: contacts, logger: logger}
}

func (s *contactService) Submit(ctx context.Context, input domain.Contact) (*domain.Contact, error) {
	const op = "contact.submit"

	c := &domain.Contact{
		Name:      strings.TrimSpace(input.Name),
		Email:     domain.NormalizeEmail(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Subject:   strings.TrimSpace(input.Subject),
		Message:   strings.TrimSpace(input.Message),
		Status:    domain.ContactStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := validation.Struct(op, c); err != nil {
		return nil, err
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, domain.WithOp(err, op)
	}

	s.logger.InfoContext(ctx, "contact form submitted", "contact_id", c.ID)
	return c, nil
}

func (s *contactService) List(ctx context.Context) ([]domain.Contact, error) {
	contacts, err := s.contacts.List(ctx)
	if err != nil {
		return nil, domain.WithOp(err, "contact.list")
	}
	return contacts, nil
}
