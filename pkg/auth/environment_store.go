package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// Read-only; it exists so CI and scripts can run without a keychain.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	apiKey := os.Getenv("XHS_TOKEN_SERVER_API_KEY")
	serverURL := os.Getenv("XHS_TOKEN_SERVER_URL")

	if apiKey == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultProfile
	}

	return &Credential{
		Name:         name,
		ServerURL:    serverURL,
		APIKey:       apiKey,
		LastModified: time.Now(),
	}, nil
}

// List returns a single profile if environment variables are set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("XHS_TOKEN_SERVER_API_KEY") != ""
}
