package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marufkhan20/pizza-auth-service/internal/repository"
)

var refreshRowColumns = []string{"id", "user_id", "expires_at", "created_at"}

const (
	insertRefreshPattern = `INSERT INTO refresh_tokens \(user_id, expires_at\)\s+VALUES \(\$1, \$2\)\s+RETURNING id, user_id, expires_at, created_at`
	rotateDeletePattern  = `DELETE FROM refresh_tokens WHERE id = \$1 AND user_id = \$2`
)

func TestRefreshTokenRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)
	now := time.Now()
	exp := now.Add(365 * 24 * time.Hour)

	mock.ExpectQuery(insertRefreshPattern).
		WithArgs(int64(7), exp).
		WillReturnRows(sqlmock.NewRows(refreshRowColumns).AddRow(11, 7, exp, now))

	token, err := repo.Create(context.Background(), 7, exp)
	require.NoError(t, err)
	assert.Equal(t, int64(11), token.ID)
	assert.Equal(t, int64(7), token.UserID)
	assert.Equal(t, exp, token.ExpiresAt)
}

func TestRefreshTokenRepository_CreateDBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectQuery(insertRefreshPattern).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), 7, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create refresh token")
}

func TestRefreshTokenRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM refresh_tokens\s+WHERE id = \$1`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(refreshRowColumns).AddRow(11, 7, now.Add(time.Hour), now))
	mock.ExpectQuery(`FROM refresh_tokens\s+WHERE id = \$1`).
		WithArgs(int64(12)).
		WillReturnError(sql.ErrNoRows)

	token, err := repo.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(7), token.UserID)

	_, err = repo.GetByID(context.Background(), 12)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRefreshTokenRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE id = \$1`).WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE id = \$1`).WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), 11)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)
	now := time.Now()
	exp := now.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(insertRefreshPattern).
		WithArgs(int64(7), exp).
		WillReturnRows(sqlmock.NewRows(refreshRowColumns).AddRow(12, 7, exp, now))
	mock.ExpectExec(rotateDeletePattern).WithArgs(int64(11), int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	token, err := repo.Rotate(context.Background(), 11, 7, exp)
	require.NoError(t, err)
	assert.Equal(t, int64(12), token.ID)
}

func TestRefreshTokenRepository_RotateAlreadyRevoked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(insertRefreshPattern).
		WillReturnRows(sqlmock.NewRows(refreshRowColumns).AddRow(12, 7, now, now))
	mock.ExpectExec(rotateDeletePattern).WithArgs(int64(11), int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Rotate(context.Background(), 11, 7, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRefreshTokenRepository_RotateInsertFailureKeepsOldRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(insertRefreshPattern).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Rotate(context.Background(), 11, 7, time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRefreshTokenRepository_RotateBeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectBegin().WillReturnError(errors.New("no connections"))

	_, err := repo.Rotate(context.Background(), 11, 7, time.Now())
	assert.Error(t, err)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)
	now := time.Now()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
