package middleware

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-social/backend/internal/models"
)

// AccountLookup finds the account linked to a Firebase user
type AccountLookup interface {
	GetAccountByFirebaseUID(firebaseUID string) (*models.Account, error)
}

// resolveFirebase verifies a Firebase ID token and maps its UID to the linked
// profile. Tokens of Firebase users that never logged in here are refused.
func (r *TokenResolver) resolveFirebase(ctx context.Context, idToken string) (string, error) {
	token, err := r.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	account, err := r.accounts.GetAccountByFirebaseUID(token.UID)
	if err != nil {
		return "", fmt.Errorf("%w: firebase user %s: %v", ErrInvalidToken, token.UID, err)
	}
	return account.ProfileID, nil
}
