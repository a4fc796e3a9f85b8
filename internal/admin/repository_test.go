package admin

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminColumns = []string{"user_id", "gym_id", "name", "email", "phone", "gender", "password_hash", "created_at"}

func setupAdminMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo, mock := setupAdminMock(t)
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO admins`).
		WithArgs("a1", "ironhouse", "Ravi", "ravi@ironhouse.in", "+919876543210", "male", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	a := &Admin{
		ID:           "a1",
		GymID:        "ironhouse",
		Name:         "Ravi",
		Email:        "ravi@ironhouse.in",
		Phone:        "+919876543210",
		Gender:       "male",
		PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, now, a.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE email = $1")).
		WithArgs("ravi@ironhouse.in").
		WillReturnRows(sqlmock.NewRows(adminColumns).
			AddRow("a1", "ironhouse", "Ravi", "ravi@ironhouse.in", "+919876543210", "male", "hash", now))

	found, err := repo.FindByEmail(context.Background(), "ravi@ironhouse.in")
	require.NoError(t, err)
	assert.Equal(t, "a1", found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE user_id = $1")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(adminColumns).
			AddRow("a1", "ironhouse", "Ravi", "ravi@ironhouse.in", "+919876543210", "male", "hash", now))

	found, err = repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "ironhouse", found.GymID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)")).
		WithArgs("ravi@ironhouse.in").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.EmailExists(context.Background(), "ravi@ironhouse.in")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateDuplicateEmail(t *testing.T) {
	repo, mock := setupAdminMock(t)

	mock.ExpectQuery(`INSERT INTO admins`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "admins_email_key"})

	err := repo.Create(context.Background(), &Admin{ID: "a2", Email: "ravi@ironhouse.in"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRepository_FindMissing(t *testing.T) {
	repo, mock := setupAdminMock(t)

	mock.ExpectQuery(`FROM admins WHERE user_id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	a, err := repo.FindByID(context.Background(), "ghost")
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrAdminNotFound)
}
