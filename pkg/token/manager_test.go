package token

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"xhsclient/pkg/config"
	errs "xhsclient/pkg/errors"
	"xhsclient/pkg/logger"
)

// fastRetry keeps token server tests quick
func fastRetry() *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:  2,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0,
	}
}

func newTestManager(t *testing.T, serverURL string) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		ServerURL:     serverURL,
		APIKey:        "test-key",
		DeviceID:      "device-a1",
		CacheXSCommon: true,
		Retry:         fastRetry(),
	}, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerValidation(t *testing.T) {
	log := logger.NewTestLogger()

	if _, err := NewManager(Options{APIKey: "k"}, log); err == nil {
		t.Error("expected error for missing server URL")
	}
	if _, err := NewManager(Options{ServerURL: "http://localhost"}, log); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestGetXSToken(t *testing.T) {
	var gotAuth string
	var gotReq xsTokenRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tokens/xs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(XSToken{XS: "XYW_signed", XT: 1700000000000})
	}))
	defer server.Close()

	m := newTestManager(t, server.URL)

	token, err := m.GetXSToken(context.Background(), "/api/sns/web/v1/homefeed", map[string]int{"num": 20})
	if err != nil {
		t.Fatalf("GetXSToken failed: %v", err)
	}

	if token.XS != "XYW_signed" {
		t.Errorf("expected XS 'XYW_signed', got %s", token.XS)
	}
	if token.XT != 1700000000000 {
		t.Errorf("expected XT 1700000000000, got %d", token.XT)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotReq.Endpoint != "/api/sns/web/v1/homefeed" {
		t.Errorf("expected endpoint in request body, got %s", gotReq.Endpoint)
	}
	if gotReq.A1 != "device-a1" {
		t.Errorf("expected a1 device ID in request body, got %s", gotReq.A1)
	}
}

func TestGetXSCommonTokenCaching(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(xsCommonResponse{
			XSCommon:  "common-token",
			ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
		})
	}))
	defer server.Close()

	m := newTestManager(t, server.URL)
	ctx := context.Background()

	first, err := m.GetXSCommonToken(ctx)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := m.GetXSCommonToken(ctx)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if first != "common-token" || second != "common-token" {
		t.Errorf("unexpected tokens: %q, %q", first, second)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 server call with warm cache, got %d", n)
	}
	if m.CacheSize() != 1 {
		t.Errorf("expected 1 cached token, got %d", m.CacheSize())
	}
}

func TestGetXSCommonTokenCacheExpiry(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(xsCommonResponse{
			XSCommon:  "common-token",
			ExpiresAt: time.Now().Add(time.Minute).UnixMilli(),
		})
	}))
	defer server.Close()

	m := newTestManager(t, server.URL)
	ctx := context.Background()

	if _, err := m.GetXSCommonToken(ctx); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	// Advance the clock past the declared expiry
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, err := m.GetXSCommonToken(ctx); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected expired token to be refetched, got %d calls", n)
	}
}

func TestGetXSCommonTokenCacheDisabled(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(xsCommonResponse{
			XSCommon:  "common-token",
			ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
		})
	}))
	defer server.Close()

	m, err := NewManager(Options{
		ServerURL:     server.URL,
		APIKey:        "test-key",
		CacheXSCommon: false,
		Retry:         fastRetry(),
	}, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	ctx := context.Background()
	m.GetXSCommonToken(ctx)
	m.GetXSCommonToken(ctx)

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 calls with caching disabled, got %d", n)
	}
	if m.CacheSize() != 0 {
		t.Errorf("expected empty cache, got %d entries", m.CacheSize())
	}
}

func TestCacheKeyByDeviceAndFingerprint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(xsCommonResponse{
			XSCommon:  "common-token",
			ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
		})
	}))
	defer server.Close()

	m := newTestManager(t, server.URL)
	ctx := context.Background()

	if _, err := m.GetXSCommonToken(ctx); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	// A different device ID misses the cache and adds a second entry
	m.SetDeviceID("other-device")
	if _, err := m.GetXSCommonToken(ctx); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if m.CacheSize() != 2 {
		t.Errorf("expected 2 cache entries for 2 device IDs, got %d", m.CacheSize())
	}

	m.ClearCache()
	if m.CacheSize() != 0 {
		t.Errorf("expected empty cache after clear, got %d", m.CacheSize())
	}
}

func TestUnauthorizedMapsToAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	m := newTestManager(t, server.URL)

	_, err := m.GetXSToken(context.Background(), "/api/sns/web/v1/homefeed", nil)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected typed error, got %T", err)
	}
	if apiErr.Type != errs.ErrorTypeAuth {
		t.Errorf("expected auth error type, got %s", apiErr.Type)
	}
}

func TestServerErrorRetried(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(XSToken{XS: "XYW_signed", XT: 1})
	}))
	defer server.Close()

	m := newTestManager(t, server.URL)

	token, err := m.GetXSToken(context.Background(), "/api/sns/web/v1/homefeed", nil)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if token.XS != "XYW_signed" {
		t.Errorf("unexpected token %s", token.XS)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	m := newTestManager(t, healthy.URL)
	if !m.HealthCheck(context.Background()) {
		t.Error("expected healthy server to pass health check")
	}

	down := newTestManager(t, "http://127.0.0.1:1")
	if down.HealthCheck(context.Background()) {
		t.Error("expected unreachable server to fail health check")
	}
}

func TestGetStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/stats" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tokens_generated": 42,
			"uptime_seconds":   123.5,
		})
	}))
	defer server.Close()

	m := newTestManager(t, server.URL)

	stats, err := m.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats["tokens_generated"] != float64(42) {
		t.Errorf("unexpected stats: %v", stats)
	}
}
