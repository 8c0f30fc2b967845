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

var userCols = []string{
	"id", "username", "email", "password_hash", "avatar", "confirmed", "refresh_token", "created_at", "updated_at",
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewUserRepository(db), mock, func() { _ = db.Close() }
}

func TestUserGetByEmail(t *testing.T) {
	repo, mock, closeDB := newUserRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ann@x.com").
		WillReturnRows(mock.NewRows(userCols).AddRow(
			1, "ann", "ann@x.com", "hash", "", false, nil, time.Now(), time.Now(),
		))

	user, err := repo.GetByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.False(t, user.Confirmed)
	assert.Nil(t, user.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByEmailNotFound(t *testing.T) {
	repo, mock, closeDB := newUserRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate(t *testing.T) {
	repo, mock, closeDB := newUserRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("ann", "ann@x.com", "hash", "", false, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(3))

	user, err := repo.Create(context.Background(), types.User{
		Username:     "ann",
		Email:        "ann@x.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateRefreshToken(t *testing.T) {
	repo, mock, closeDB := newUserRepo(t)
	defer closeDB()

	token := "refresh-token"
	mock.ExpectExec(regexp.QuoteMeta("SET refresh_token = $1")).
		WithArgs(token, sqlmock.AnyArg(), "ann@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRefreshToken(context.Background(), "ann@x.com", &token)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRevokeRefreshToken(t *testing.T) {
	repo, mock, closeDB := newUserRepo(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta("SET refresh_token = $1")).
		WithArgs(nil, sqlmock.AnyArg(), "ann@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRefreshToken(context.Background(), "ann@x.com", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserConfirmEmail(t *testing.T) {
	repo, mock, closeDB := newUserRepo(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta("SET confirmed = TRUE")).
		WithArgs(sqlmock.AnyArg(), "ann@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ConfirmEmail(context.Background(), "ann@x.com")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserConfirmEmailUnknown(t *testing.T) {
	repo, mock, closeDB := newUserRepo(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta("SET confirmed = TRUE")).
		WithArgs(sqlmock.AnyArg(), "ghost@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ConfirmEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateAvatar(t *testing.T) {
	repo, mock, closeDB := newUserRepo(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta("SET avatar = $1")).
		WithArgs("http://cdn/avatars/a.png", sqlmock.AnyArg(), "ann@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ann@x.com").
		WillReturnRows(mock.NewRows(userCols).AddRow(
			1, "ann", "ann@x.com", "hash", "http://cdn/avatars/a.png", true, nil, time.Now(), time.Now(),
		))

	user, err := repo.UpdateAvatar(context.Background(), "ann@x.com", "http://cdn/avatars/a.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/avatars/a.png", user.Avatar)
	assert.NoError(t, mock.ExpectationsWereMet())
}
