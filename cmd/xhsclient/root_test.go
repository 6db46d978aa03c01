package main

import (
	"testing"

	"xhsclient/pkg/auth"
)

// A key stored via 'auth login' must be picked up by loadConfig when no
// key arrives from flags, environment or config file.
func TestLoadConfigUsesStoredCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XHS_PASSPHRASE", "test-passphrase")
	t.Setenv("XHS_TOKEN_SERVER_URL", "")
	t.Setenv("XHS_TOKEN_SERVER_API_KEY", "")

	manager, err := auth.NewManager()
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := manager.Store(&auth.Credential{
		Name:      auth.DefaultProfile,
		ServerURL: "http://stored.example:8000",
		APIKey:    "stored-api-key",
	}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	t.Cleanup(func() { _ = manager.Delete(auth.DefaultProfile) })

	cfg, _, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.TokenServer.APIKey != "stored-api-key" {
		t.Errorf("API key = %q, want stored-api-key", cfg.TokenServer.APIKey)
	}
	if cfg.TokenServer.URL != "http://stored.example:8000" {
		t.Errorf("server URL = %q, want the stored URL", cfg.TokenServer.URL)
	}
}

// Without stored or configured credentials loadConfig still succeeds;
// commands that talk to the token server fail later with a hint.
func TestLoadConfigWithoutCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XHS_TOKEN_SERVER_URL", "")
	t.Setenv("XHS_TOKEN_SERVER_API_KEY", "")

	cfg, _, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	err = cfg.ValidateCredentials()
	if err == nil {
		t.Fatal("expected credential validation to fail")
	}
}
