package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/contactbox/apiserver/types"
)

// ContactRepository handles persistence for contacts.
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, first_name, last_name, email, phone, birthday, note, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (types.Contact, error) {
	var contact types.Contact
	err := row.Scan(
		&contact.ID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
		&contact.Birthday,
		&contact.Note,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	return contact, err
}

func (r *ContactRepository) List(ctx context.Context, limit, offset int) ([]types.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContacts(rows, limit)
}

func (r *ContactRepository) Get(ctx context.Context, id int) (types.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = $1`
	contact, err := scanContact(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contact{}, ErrNotFound
		}
		return types.Contact{}, err
	}
	return contact, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	const query = `
		INSERT INTO contacts (first_name, last_name, email, phone, birthday, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Note,
		contact.CreatedAt,
		contact.UpdatedAt,
	).Scan(&contact.ID); err != nil {
		return types.Contact{}, err
	}
	return contact, nil
}

// Update loads the contact, merges only the fields set on the patch, and
// persists the result. Absent rows yield ErrNotFound.
func (r *ContactRepository) Update(ctx context.Context, id int, patch types.ContactPatch) (types.Contact, error) {
	contact, err := r.Get(ctx, id)
	if err != nil {
		return types.Contact{}, err
	}

	patch.Apply(&contact)
	contact.UpdatedAt = time.Now()

	const query = `
		UPDATE contacts
		SET first_name = $1,
			last_name = $2,
			email = $3,
			phone = $4,
			birthday = $5,
			note = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Note,
		contact.UpdatedAt,
		contact.ID,
	)
	if err != nil {
		return types.Contact{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Contact{}, err
	}
	if affected == 0 {
		return types.Contact{}, ErrNotFound
	}
	return contact, nil
}

// Delete removes the contact and returns its pre-deletion snapshot.
// Absent rows yield ErrNotFound with no effect.
func (r *ContactRepository) Delete(ctx context.Context, id int) (types.Contact, error) {
	contact, err := r.Get(ctx, id)
	if err != nil {
		return types.Contact{}, err
	}

	const query = `DELETE FROM contacts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return types.Contact{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Contact{}, err
	}
	if affected == 0 {
		return types.Contact{}, ErrNotFound
	}
	return contact, nil
}

// Search matches text case-insensitively as a substring of first name,
// last name, or email.
func (r *ContactRepository) Search(ctx context.Context, text string, limit, offset int) ([]types.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	pattern := "%" + text + "%"
	rows, err := r.db.QueryContext(ctx, query, pattern, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContacts(rows, limit)
}

// Birthdays returns contacts whose next birthday falls within the coming
// days. The birthday's month and day are projected onto the current year
// (Feb 29 maps to Feb 28 off leap years) so the stored year's calendar
// cannot skew the offset; the difference is taken modulo 365 so the window
// wraps across the year boundary.
func (r *ContactRepository) Birthdays(ctx context.Context, days, limit, offset int) ([]types.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE mod(
			extract(doy FROM make_date(
				extract(year FROM current_date)::int,
				extract(month FROM birthday)::int,
				CASE WHEN extract(month FROM birthday) = 2 AND extract(day FROM birthday) = 29
					AND NOT (extract(year FROM current_date)::int % 4 = 0
						AND (extract(year FROM current_date)::int % 100 <> 0
							OR extract(year FROM current_date)::int % 400 = 0))
					THEN 28
					ELSE extract(day FROM birthday)::int
				END))::int
			- extract(doy FROM current_date)::int + 365, 365) <= $1
		ORDER BY birthday
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, days, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContacts(rows, limit)
}

func collectContacts(rows *sql.Rows, capacity int) ([]types.Contact, error) {
	contacts := make([]types.Contact, 0, capacity)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}
