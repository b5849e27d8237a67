package transport

import (
	"time"

	"contacts_backend/internal/contacts/repository"
)

// DateLayout is the wire format for birthday fields.
const DateLayout = "2006-01-02"

type CreateContactRequest struct {
	FirstName      string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName       string  `json:"last_name" validate:"required,min=1,max=100"`
	Email          string  `json:"email" validate:"required,email,max=254"`
	PhoneNumber    string  `json:"phone_number" validate:"required,min=3,max=30"`
	Birthday       string  `json:"birthday" validate:"required,datetime=2006-01-02"`
	AdditionalData *string `json:"additional_data,omitempty" validate:"omitempty,max=500"`
}

type UpdateContactRequest struct {
	FirstName      *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName       *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	PhoneNumber    *string `json:"phone_number,omitempty" validate:"omitempty,min=3,max=30"`
	Birthday       *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AdditionalData *string `json:"additional_data,omitempty" validate:"omitempty,max=500"`
}

type ListContactsRequest struct {
	Skip  int `form:"skip" validate:"min=0"`
	Limit int `form:"limit" validate:"min=0,max=100"`
}

type ContactResponse struct {
	ID             int64   `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	PhoneNumber    string  `json:"phone_number"`
	Birthday       string  `json:"birthday"`
	AdditionalData *string `json:"additional_data"`
}

type BirthdayResponse struct {
	Message string `json:"message"`
}

// NewContactResponse maps a stored contact to its API representation.
func NewContactResponse(contact repository.Contact) ContactResponse {
	return ContactResponse{
		ID:             contact.ID,
		FirstName:      contact.FirstName,
		LastName:       contact.LastName,
		Email:          contact.Email,
		PhoneNumber:    contact.PhoneNumber,
		Birthday:       contact.Birthday.Format(DateLayout),
		AdditionalData: contact.AdditionalData,
	}
}

// NewContactListResponse maps a slice of contacts, never returning nil so
// empty result sets encode as [].
func NewContactListResponse(contacts []repository.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, NewContactResponse(c))
	}
	return out
}

// ParseDate parses a wire-format date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}
