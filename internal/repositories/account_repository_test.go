package repositories

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock, func() { db.Close() }
}

func TestAccountRepository_CreateAccount(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "successful create",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "accounts"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
				mock.ExpectCommit()
			},
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "accounts"`)).
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()
			tt.mockSetup(mock)

			account := &models.Account{ProfileID: "65f1c0ffee65f1c0ffee65f1", Email: "amy@example.com", Password: "hash"}
			err := NewPostgresAccountRepository(db).CreateAccount(account)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uint(7), account.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_GetAccountByEmail(t *testing.T) {
	tests := []struct {
		name      string
		rows      *sqlmock.Rows
		wantErr   error
		wantEmail string
	}{
		{
			name: "found",
			rows: sqlmock.NewRows([]string{"id", "profile_id", "email", "password"}).
				AddRow(3, "65f1c0ffee65f1c0ffee65f1", "amy@example.com", "hash"),
			wantEmail: "amy@example.com",
		},
		{
			name:    "not found",
			rows:    sqlmock.NewRows([]string{"id"}),
			wantErr: ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE email = $1`)).
				WillReturnRows(tt.rows)

			account, err := NewPostgresAccountRepository(db).GetAccountByEmail("amy@example.com")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, account)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantEmail, account.Email)
				assert.Equal(t, "65f1c0ffee65f1c0ffee65f1", account.ProfileID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_GetAccountByFirebaseUID(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE firebase_uid = $1`)).
		WillReturnError(assert.AnError)

	_, err := NewPostgresAccountRepository(db).GetAccountByFirebaseUID("fb-uid")

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateAccount(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "accounts" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	uid := "fb-uid"
	account := &models.Account{ProfileID: "65f1c0ffee65f1c0ffee65f1", Email: "amy@example.com", FirebaseUID: &uid}
	account.ID = 3

	require.NoError(t, NewPostgresAccountRepository(db).UpdateAccount(account))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetAccountByResetToken(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE reset_token = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "reset_token"}).AddRow(4, "amy@example.com", "abc"))

	account, err := NewPostgresAccountRepository(db).GetAccountByResetToken("abc")

	require.NoError(t, err)
	require.NotNil(t, account.ResetToken)
	assert.Equal(t, "abc", *account.ResetToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
