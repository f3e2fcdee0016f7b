package repositories

import (
	"errors"

	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for login credential operations
type AccountRepository interface {
	CreateAccount(account *models.Account) error
	GetAccountByEmail(email string) (*models.Account, error)
	GetAccountByFirebaseUID(firebaseUID string) (*models.Account, error)
	GetAccountByResetToken(token string) (*models.Account, error)
	UpdateAccount(account *models.Account) error
}

// PostgresAccountRepository implements AccountRepository for PostgreSQL
type PostgresAccountRepository struct {
	db *gorm.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *gorm.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// CreateAccount creates a new account in PostgreSQL
func (r *PostgresAccountRepository) CreateAccount(account *models.Account) error {
	return r.db.Create(account).Error
}

// GetAccountByEmail retrieves an account by email
func (r *PostgresAccountRepository) GetAccountByEmail(email string) (*models.Account, error) {
	return r.first("email = ?", email)
}

// GetAccountByFirebaseUID retrieves an account linked to a Firebase user
func (r *PostgresAccountRepository) GetAccountByFirebaseUID(firebaseUID string) (*models.Account, error) {
	return r.first("firebase_uid = ?", firebaseUID)
}

// GetAccountByResetToken retrieves the account a password reset token was
// issued for
func (r *PostgresAccountRepository) GetAccountByResetToken(token string) (*models.Account, error) {
	return r.first("reset_token = ?", token)
}

// UpdateAccount saves every field of account
func (r *PostgresAccountRepository) UpdateAccount(account *models.Account) error {
	return r.db.Save(account).Error
}

func (r *PostgresAccountRepository) first(query string, arg any) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where(query, arg).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}
