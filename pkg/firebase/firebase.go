package firebase

import (
	"context"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"google.golang.org/api/option"
)

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logger.Log.Info("Firebase app and auth client initialized")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// Profile is what a verified ID token tells about its user
type Profile struct {
	UID          string
	Email        string
	FirstName    string
	LastName     string
	ProfileImage string
}

// ProfileFromToken reads the standard claims of a verified token. The display
// name is split at its first space.
func ProfileFromToken(token *auth.Token) Profile {
	p := Profile{UID: token.UID}
	p.Email, _ = token.Claims["email"].(string)
	p.ProfileImage, _ = token.Claims["picture"].(string)
	if name, ok := token.Claims["name"].(string); ok {
		first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
		p.FirstName = first
		p.LastName = strings.TrimSpace(last)
	}
	if p.FirstName == "" {
		p.FirstName, _, _ = strings.Cut(p.Email, "@")
	}
	return p
}
