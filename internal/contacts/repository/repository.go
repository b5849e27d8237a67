// Package repository persists contacts in PostgreSQL. Every query is scoped
// to the owning user; a contact is never visible outside its owner.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no contact matches the id for the owner.
var ErrNotFound = errors.New("contact not found")

// Contact is the persisted contact row.
type Contact struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	Birthday       time.Time
	AdditionalData *string
	UserID         int64
}

// BirthdayRow is the projection used by the upcoming-birthdays query.
// Formatted carries the Postgres to_char(birthday, 'MON-DD') rendering.
type BirthdayRow struct {
	ID        int64
	FirstName string
	LastName  string
	Formatted string
}

// Repository provides contact persistence backed by pgx.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contactColumns = "id, first_name, last_name, email, phone_number, birthday, additional_data, user_id"

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.Birthday, &c.AdditionalData, &c.UserID)
	return c, err
}

// Create inserts a new contact for the owner and returns the stored row.
func (r *Repository) Create(ctx context.Context, contact Contact) (Contact, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO contacts (first_name, last_name, email, phone_number, birthday, additional_data, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+contactColumns,
		contact.FirstName, contact.LastName, contact.Email, contact.PhoneNumber,
		contact.Birthday, contact.AdditionalData, contact.UserID)
	return scanContact(row)
}

// ListByOwner returns the owner's contacts with offset/limit pagination.
func (r *Repository) ListByOwner(ctx context.Context, userID int64, skip, limit int) ([]Contact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 ORDER BY id OFFSET $2 LIMIT $3`,
		userID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContacts(rows)
}

// GetByID returns the owner's contact by id.
func (r *Repository) GetByID(ctx context.Context, contactID, userID int64) (Contact, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`,
		contactID, userID)
	contact, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return contact, err
}

// Update replaces the mutable fields of the owner's contact.
func (r *Repository) Update(ctx context.Context, contact Contact) (Contact, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE contacts
		 SET first_name = $1, last_name = $2, email = $3, phone_number = $4, birthday = $5, additional_data = $6
		 WHERE id = $7 AND user_id = $8
		 RETURNING `+contactColumns,
		contact.FirstName, contact.LastName, contact.Email, contact.PhoneNumber,
		contact.Birthday, contact.AdditionalData, contact.ID, contact.UserID)
	updated, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return updated, err
}

// Delete removes the owner's contact by id.
func (r *Repository) Delete(ctx context.Context, contactID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Search matches the query case-insensitively against first name, last name
// and email within the owner's contacts.
func (r *Repository) Search(ctx context.Context, userID int64, query string) ([]Contact, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE user_id = $1
		   AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		 ORDER BY id`,
		userID, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContacts(rows)
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls between
// start and end, comparing month and day only so the stored birth year is
// irrelevant.
func (r *Repository) UpcomingBirthdays(ctx context.Context, userID int64, start, end time.Time) ([]BirthdayRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, first_name, last_name, to_char(birthday, 'MON-DD')
		 FROM contacts
		 WHERE user_id = $1
		   AND (
		     (EXTRACT(MONTH FROM birthday) = EXTRACT(MONTH FROM $2::date)
		      AND EXTRACT(DAY FROM birthday) BETWEEN EXTRACT(DAY FROM $2::date) AND EXTRACT(DAY FROM $3::date))
		     OR
		     (EXTRACT(MONTH FROM birthday) = EXTRACT(MONTH FROM $3::date)
		      AND EXTRACT(DAY FROM birthday) <= EXTRACT(DAY FROM $3::date))
		   )
		 ORDER BY id`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []BirthdayRow
	for rows.Next() {
		var b BirthdayRow
		if err := rows.Scan(&b.ID, &b.FirstName, &b.LastName, &b.Formatted); err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

func collectContacts(rows pgx.Rows) ([]Contact, error) {
	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.Birthday, &c.AdditionalData, &c.UserID); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
