package auth

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, store := NewMockManager()

	cred := &Credential{
		Name:      "default",
		ServerURL: "http://localhost:8000",
		APIKey:    "secret-api-key-12345",
	}

	if err := manager.Store(cred); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 stored credential, got %d", store.Count())
	}
	if cred.LastModified.IsZero() {
		t.Error("expected LastModified to be set on store")
	}

	got, err := manager.Retrieve("default")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if got.APIKey != "secret-api-key-12345" {
		t.Errorf("api key = %q", got.APIKey)
	}
	if got.ServerURL != "http://localhost:8000" {
		t.Errorf("server url = %q", got.ServerURL)
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Credential{APIKey: "key"}); err == nil {
		t.Error("expected error for missing profile name")
	}
	if err := manager.Store(&Credential{Name: "default"}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestManagerRetrieveMissing(t *testing.T) {
	manager, _ := NewMockManager()

	if _, err := manager.Retrieve("nope"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestManagerFallbackAcrossStores(t *testing.T) {
	// First store always fails, second one works
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	broken.RetrieveError = errors.New("keychain locked")

	working := NewMockStore()

	manager := NewMockManagerWithStores(broken, working)

	cred := &Credential{Name: "default", APIKey: "secret-api-key-12345"}
	if err := manager.Store(cred); err != nil {
		t.Fatalf("Store should fall back to the next store: %v", err)
	}
	if working.Count() != 1 {
		t.Errorf("expected fallback store to hold the credential, got %d", working.Count())
	}

	got, err := manager.Retrieve("default")
	if err != nil {
		t.Fatalf("Retrieve should fall back to the next store: %v", err)
	}
	if got.APIKey != "secret-api-key-12345" {
		t.Errorf("api key = %q", got.APIKey)
	}
}

func TestManagerRetrieveDefaultFromEnv(t *testing.T) {
	t.Setenv("XHS_TOKEN_SERVER_API_KEY", "env-api-key-98765")
	t.Setenv("XHS_TOKEN_SERVER_URL", "http://env.example:9000")

	manager := NewMockManagerWithStores(NewMockStore(), NewEnvironmentStore())

	cred, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("RetrieveDefault failed: %v", err)
	}
	if cred.APIKey != "env-api-key-98765" {
		t.Errorf("api key = %q", cred.APIKey)
	}
	if cred.ServerURL != "http://env.example:9000" {
		t.Errorf("server url = %q", cred.ServerURL)
	}
}

func TestManagerRetrieveDefaultFallsBackToFirstProfile(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Credential{Name: "work", APIKey: "work-api-key-12345"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	cred, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("RetrieveDefault failed: %v", err)
	}
	if cred.Name != "work" {
		t.Errorf("expected the only stored profile, got %q", cred.Name)
	}
}

func TestManagerDelete(t *testing.T) {
	manager, store := NewMockManager()

	manager.Store(&Credential{Name: "default", APIKey: "secret-api-key-12345"})
	if err := manager.Delete("default"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("expected empty store after delete, got %d", store.Count())
	}

	if err := manager.Delete("default"); err == nil {
		t.Error("expected error deleting a missing profile")
	}
}

func TestSanitizeCredential(t *testing.T) {
	cred := &Credential{
		Name:      "default",
		ServerURL: "http://localhost:8000",
		APIKey:    "secret-api-key-12345",
	}

	safe := SanitizeCredential(cred)
	if safe.APIKey != "secr...2345" {
		t.Errorf("masked key = %q", safe.APIKey)
	}
	if safe.Name != "default" || safe.ServerURL != cred.ServerURL {
		t.Errorf("unexpected sanitized credential: %+v", safe)
	}
	// Original is untouched
	if cred.APIKey != "secret-api-key-12345" {
		t.Error("sanitize must not modify the original")
	}

	if SanitizeCredential(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestMaskString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "********"},
		{"short", "********"},
		{"12345678", "********"},
		{"123456789", "1234...6789"},
		{"secret-api-key-12345", "secr...2345"},
	}

	for _, tt := range tests {
		if got := maskString(tt.in); got != tt.want {
			t.Errorf("maskString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncryptedFileStoreRoundtrip(t *testing.T) {
	t.Setenv("XHS_PASSPHRASE", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("NewEncryptedFileStore failed: %v", err)
	}

	cred := &Credential{
		Name:      "default",
		ServerURL: "http://localhost:8000",
		APIKey:    "secret-api-key-12345",
	}
	if err := store.Store(cred); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if !store.Exists("default") {
		t.Error("expected stored profile to exist")
	}

	// A fresh store instance with the same passphrase reads it back
	reopened, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}

	got, err := reopened.Retrieve("default")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if got.APIKey != "secret-api-key-12345" {
		t.Errorf("api key = %q", got.APIKey)
	}
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("XHS_PASSPHRASE", "first-passphrase")
	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("NewEncryptedFileStore failed: %v", err)
	}
	if err := store.Store(&Credential{Name: "default", APIKey: "secret-api-key-12345"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	t.Setenv("XHS_PASSPHRASE", "other-passphrase")
	wrong, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("NewEncryptedFileStore failed: %v", err)
	}
	if _, err := wrong.Retrieve("default"); err == nil {
		t.Error("expected decryption failure with the wrong passphrase")
	}
}

func TestEncryptedFileStoreDelete(t *testing.T) {
	t.Setenv("XHS_PASSPHRASE", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("NewEncryptedFileStore failed: %v", err)
	}

	store.Store(&Credential{Name: "a", APIKey: "key-a-1234567890"})
	store.Store(&Credential{Name: "b", APIKey: "key-b-1234567890"})

	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Exists("a") {
		t.Error("profile a should be gone")
	}
	if !store.Exists("b") {
		t.Error("profile b should survive")
	}

	if err := store.Delete("missing"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestEnvironmentStoreIsReadOnly(t *testing.T) {
	t.Setenv("XHS_TOKEN_SERVER_API_KEY", "env-api-key-98765")

	store := NewEnvironmentStore()

	if err := store.Store(&Credential{Name: "x", APIKey: "k"}); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable on store, got %v", err)
	}
	if err := store.Delete("x"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable on delete, got %v", err)
	}

	cred, err := store.Retrieve("anything")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if cred.APIKey != "env-api-key-98765" {
		t.Errorf("api key = %q", cred.APIKey)
	}
}

func TestEnvironmentStoreWithoutKey(t *testing.T) {
	t.Setenv("XHS_TOKEN_SERVER_API_KEY", "")

	store := NewEnvironmentStore()
	if store.Exists("default") {
		t.Error("store should report nothing without the env var")
	}
	if _, err := store.Retrieve("default"); err == nil {
		t.Error("expected error without the env var")
	}
}
