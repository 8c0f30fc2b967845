package types

import "time"

// Contact represents one entry in a user's address book.
type Contact struct {
	// ID is the unique identifier of the contact.
	ID int `json:"id" db:"id"`

	// FirstName is the contact's given name.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the contact's family name.
	LastName string `json:"last_name" db:"last_name"`

	// Email is the contact's email address. Unlike users, contacts carry
	// no uniqueness constraint on email.
	Email string `json:"email" db:"email"`

	// Phone is the contact's phone number.
	Phone string `json:"phone" db:"phone"`

	// Birthday is the contact's date of birth.
	Birthday Date `json:"birthday" db:"birthday"`

	// Note is optional free-form text attached to the contact.
	Note *string `json:"note,omitempty" db:"note"`

	// CreatedAt is the timestamp when the contact was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the contact.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ContactPatch carries a partial update of a contact. A nil field means
// "leave unchanged"; only non-nil fields are written.
type ContactPatch struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Birthday  *Date   `json:"birthday"`
	Note      *string `json:"note"`
}

// Apply merges the patch onto the contact, overwriting exactly the fields
// that are set.
func (p ContactPatch) Apply(contact *Contact) {
	if p.FirstName != nil {
		contact.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		contact.LastName = *p.LastName
	}
	if p.Email != nil {
		contact.Email = *p.Email
	}
	if p.Phone != nil {
		contact.Phone = *p.Phone
	}
	if p.Birthday != nil {
		contact.Birthday = *p.Birthday
	}
	if p.Note != nil {
		contact.Note = p.Note
	}
}
