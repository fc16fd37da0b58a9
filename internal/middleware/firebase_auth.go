package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// IDTokenVerifier is the part of *auth.Client used to check ID tokens.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier validates Firebase Authentication ID tokens. The user id
// is the Firebase UID, which is also the key expenses are stored under.
type FirebaseVerifier struct {
	client IDTokenVerifier
}

// NewFirebaseVerifier creates a verifier backed by client.
func NewFirebaseVerifier(client IDTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// VerifyToken checks the ID token with Firebase and returns its UID.
func (v *FirebaseVerifier) VerifyToken(ctx context.Context, idToken string) (string, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verifying firebase id token: %w", err)
	}
	if token.UID == "" {
		return "", fmt.Errorf("firebase id token has no uid")
	}
	return token.UID, nil
}
