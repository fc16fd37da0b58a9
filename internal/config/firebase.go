package config

import (
	"encoding/base64"
	"fmt"
	"os"
)

// firebaseCredentials resolves inline service account credentials. Raw JSON
// wins over base64; a credentials file is handled by the firebase app itself.
func firebaseCredentials() ([]byte, error) {
	if raw := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); raw != "" {
		return []byte(raw), nil
	}
	if encoded := os.Getenv("FIREBASE_SERVICE_ACCOUNT_BASE64"); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid FIREBASE_SERVICE_ACCOUNT_BASE64: %w", err)
		}
		return decoded, nil
	}
	return nil, nil
}
