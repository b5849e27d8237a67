// Package service implements the contacts business logic: owner scoping,
// phone normalization and the upcoming-birthdays projection.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contacts_backend/internal/contacts/repository"
	"contacts_backend/internal/contacts/transport"
	"contacts_backend/platform/apperr"
	"contacts_backend/platform/logger"
	"contacts_backend/platform/phone"
)

const msgContactNotFound = "Contact not found"

// DefaultListLimit caps list responses when the client does not ask for a
// specific page size.
const DefaultListLimit = 10

// Store is the persistence collaborator.
type Store interface {
	Create(ctx context.Context, contact repository.Contact) (repository.Contact, error)
	ListByOwner(ctx context.Context, userID int64, skip, limit int) ([]repository.Contact, error)
	GetByID(ctx context.Context, contactID, userID int64) (repository.Contact, error)
	Update(ctx context.Context, contact repository.Contact) (repository.Contact, error)
	Delete(ctx context.Context, contactID, userID int64) error
	Search(ctx context.Context, userID int64, query string) ([]repository.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID int64, start, end time.Time) ([]repository.BirthdayRow, error)
}

// Service implements contact operations scoped to the owning user.
type Service struct {
	repo Store
	log  *logger.Logger
}

func New(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create stores a new contact for the owner. Phone numbers are normalized
// to E.164 where the input parses.
func (s *Service) Create(ctx context.Context, userID int64, req transport.CreateContactRequest) (repository.Contact, error) {
	birthday, err := transport.ParseDate(req.Birthday)
	if err != nil {
		return repository.Contact{}, apperr.BadRequest("invalid birthday date")
	}

	contact := repository.Contact{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    phone.NormalizeE164(req.PhoneNumber),
		Birthday:       birthday,
		AdditionalData: req.AdditionalData,
		UserID:         userID,
	}

	return s.repo.Create(ctx, contact)
}

// List returns a page of the owner's contacts.
func (s *Service) List(ctx context.Context, userID int64, skip, limit int) ([]repository.Contact, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if skip < 0 {
		skip = 0
	}
	return s.repo.ListByOwner(ctx, userID, skip, limit)
}

// Get returns the owner's contact by id.
func (s *Service) Get(ctx context.Context, contactID, userID int64) (repository.Contact, error) {
	contact, err := s.repo.GetByID(ctx, contactID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Contact{}, apperr.NotFound(msgContactNotFound)
	}
	return contact, err
}

// Update applies the non-nil fields of the patch to the owner's contact and
// returns the updated row.
func (s *Service) Update(ctx context.Context, contactID, userID int64, req transport.UpdateContactRequest) (repository.Contact, error) {
	contact, err := s.repo.GetByID(ctx, contactID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Contact{}, apperr.NotFound(msgContactNotFound)
	}
	if err != nil {
		return repository.Contact{}, err
	}

	if req.FirstName != nil {
		contact.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		contact.LastName = *req.LastName
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		contact.PhoneNumber = phone.NormalizeE164(*req.PhoneNumber)
	}
	if req.Birthday != nil {
		birthday, err := transport.ParseDate(*req.Birthday)
		if err != nil {
			return repository.Contact{}, apperr.BadRequest("invalid birthday date")
		}
		contact.Birthday = birthday
	}
	if req.AdditionalData != nil {
		contact.AdditionalData = req.AdditionalData
	}

	updated, err := s.repo.Update(ctx, contact)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Contact{}, apperr.NotFound(msgContactNotFound)
	}
	return updated, err
}

// Delete removes the owner's contact by id.
func (s *Service) Delete(ctx context.Context, contactID, userID int64) error {
	err := s.repo.Delete(ctx, contactID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgContactNotFound)
	}
	return err
}

// Search matches the query against first name, last name and email.
func (s *Service) Search(ctx context.Context, userID int64, query string) ([]repository.Contact, error) {
	return s.repo.Search(ctx, userID, query)
}

// UpcomingBirthdays returns one message per contact whose birthday falls
// within days of start. A zero start means today.
func (s *Service) UpcomingBirthdays(ctx context.Context, userID int64, days int, start time.Time) ([]transport.BirthdayResponse, error) {
	if days < 1 {
		return nil, apperr.BadRequest("Days must be positive")
	}
	if start.IsZero() {
		start = time.Now()
	}
	end := start.AddDate(0, 0, days)

	rows, err := s.repo.UpcomingBirthdays(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	messages := make([]transport.BirthdayResponse, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, transport.BirthdayResponse{
			Message: fmt.Sprintf("%s %s's birthday is on %s (ID: %d)", row.FirstName, row.LastName, row.Formatted, row.ID),
		})
	}
	return messages, nil
}

var _ Store = (*repository.Repository)(nil)
