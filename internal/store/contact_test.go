package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/contactbox/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contactCols = []string{
	"id", "first_name", "last_name", "email", "phone", "birthday", "note", "created_at", "updated_at",
}

func contactRow(mock sqlmock.Sqlmock, id int, note any) *sqlmock.Rows {
	return mock.NewRows(contactCols).AddRow(
		id, "Ann", "Lee", "ann@x.com", "555-0100",
		time.Date(2000, time.March, 10, 0, 0, 0, 0, time.UTC),
		note,
		time.Now(), time.Now(),
	)
}

func newContactRepo(t *testing.T) (*ContactRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewContactRepository(db), mock, func() { _ = db.Close() }
}

func TestContactCreate(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contacts")).
		WithArgs("Ann", "Lee", "ann@x.com", "555-0100", sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(7))

	created, err := repo.Create(context.Background(), types.Contact{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ann@x.com",
		Phone:     "555-0100",
		Birthday:  types.NewDate(2000, time.March, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, created.ID)
	assert.Equal(t, "Ann", created.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactGetNotFound(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE id = $1")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactUpdateMergesOnlySuppliedFields(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(contactRow(mock, 7, nil))

	// Only phone is patched; every other column keeps its loaded value.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET")).
		WithArgs("Ann", "Lee", "ann@x.com", "555-0199", sqlmock.AnyArg(), nil, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	phone := "555-0199"
	updated, err := repo.Update(context.Background(), 7, types.ContactPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, "Ann", updated.FirstName)
	assert.Equal(t, "ann@x.com", updated.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactUpdateNotFound(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE id = $1")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	phone := "555-0199"
	_, err := repo.Update(context.Background(), 99, types.ContactPatch{Phone: &phone})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactDeleteReturnsSnapshot(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(contactRow(mock, 7, "call back"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id = $1")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, deleted.ID)
	require.NotNil(t, deleted.Note)
	assert.Equal(t, "call back", *deleted.Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactDeleteMissing(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE id = $1")).
		WithArgs(7).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSearchPattern(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1")).
		WithArgs("%ann%", 0, 10).
		WillReturnRows(contactRow(mock, 7, nil))

	contacts, err := repo.Search(context.Background(), "ann", 10, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ann", contacts[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactBirthdaysWindow(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("extract(day FROM birthday) = 29")).
		WithArgs(10, 0, 10).
		WillReturnRows(contactRow(mock, 7, nil))

	contacts, err := repo.Birthdays(context.Background(), 10, 10, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactList(t *testing.T) {
	repo, mock, closeDB := newContactRepo(t)
	defer closeDB()

	rows := contactRow(mock, 1, nil).AddRow(
		2, "Bob", "Kim", "bob@x.com", "555-0101",
		time.Date(1990, time.July, 1, 0, 0, 0, 0, time.UTC),
		nil, time.Now(), time.Now(),
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts ORDER BY id OFFSET $1 LIMIT $2")).
		WithArgs(0, 10).
		WillReturnRows(rows)

	contacts, err := repo.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, 1, contacts[0].ID)
	assert.Equal(t, 2, contacts[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
