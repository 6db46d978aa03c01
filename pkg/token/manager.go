package token

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"xhsclient/pkg/config"
	errs "xhsclient/pkg/errors"
	"xhsclient/pkg/logger"
	"xhsclient/pkg/retry"
)

// XSToken is a per-request signing token returned by the token server
type XSToken struct {
	XS string `json:"x_s"`
	XT int64  `json:"x_t"`
}

// xsTokenRequest is the request body for the X-S endpoint
type xsTokenRequest struct {
	Endpoint    string      `json:"endpoint"`
	Payload     interface{} `json:"payload"`
	A1          string      `json:"a1,omitempty"`
	TimestampMS int64       `json:"timestamp_ms,omitempty"`
}

// xsCommonRequest is the request body for the X-S-Common endpoint
type xsCommonRequest struct {
	A1          string                 `json:"a1,omitempty"`
	Fingerprint map[string]interface{} `json:"fingerprint,omitempty"`
}

// xsCommonResponse is the response body of the X-S-Common endpoint.
// ExpiresAt is a unix timestamp in milliseconds.
type xsCommonResponse struct {
	XSCommon  string `json:"x_s_common"`
	ExpiresAt int64  `json:"expires_at"`
}

// cachedToken holds a cached X-S-Common token with its declared expiry
type cachedToken struct {
	token     string
	expiresAt int64
}

// Stats reports token generation statistics from the server
type Stats map[string]interface{}

// Options configures a Manager
type Options struct {
	// ServerURL is the base URL of the token server
	ServerURL string
	// APIKey authenticates against the token server (Bearer)
	APIKey string
	// Timeout applies to token generation requests
	Timeout time.Duration
	// HealthTimeout applies to health check requests
	HealthTimeout time.Duration
	// CacheXSCommon enables local caching of X-S-Common tokens by expiry
	CacheXSCommon bool
	// InsecureSkipVerify disables TLS verification for self-signed certificates
	InsecureSkipVerify bool
	// DeviceID is the a1 cookie value sent alongside token requests
	DeviceID string
	// Fingerprint is optional browser fingerprint data for X-S-Common
	Fingerprint map[string]interface{}
	// Retry configures backoff for transient token server failures
	Retry *config.RetryConfig
}

// Manager requests signing tokens from the remote token server and caches
// X-S-Common tokens until their declared expiry. The signing algorithm itself
// lives on the server and is not part of this module.
type Manager struct {
	serverURL     string
	apiKey        string
	deviceID      string
	fingerprint   map[string]interface{}
	cacheXSCommon bool
	httpClient    *http.Client
	healthTimeout time.Duration
	retryCfg      *retry.Config
	logger        logger.Logger

	mu    sync.Mutex
	cache map[string]cachedToken

	// now is swappable for expiry tests
	now func() time.Time
}

// NewManager creates a token manager for the given server
func NewManager(opts Options, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.ServerURL == "" {
		return nil, fmt.Errorf("token server URL is required")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("token server API key is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	healthTimeout := opts.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 2 * time.Second
	}

	transport := http.DefaultTransport
	if opts.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	var retryCfg *retry.Config
	if opts.Retry != nil {
		retryCfg = retry.FromConfig(opts.Retry, log)
	} else {
		retryCfg = retry.DefaultConfig()
		retryCfg.Logger = log
	}

	return &Manager{
		serverURL:     strings.TrimRight(opts.ServerURL, "/"),
		apiKey:        opts.APIKey,
		deviceID:      opts.DeviceID,
		fingerprint:   opts.Fingerprint,
		cacheXSCommon: opts.CacheXSCommon,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		healthTimeout: healthTimeout,
		retryCfg:      retryCfg,
		logger:        log,
		cache:         make(map[string]cachedToken),
		now:           time.Now,
	}, nil
}

// SetDeviceID sets the a1 device ID sent with token requests
func (m *Manager) SetDeviceID(a1 string) {
	m.deviceID = a1
}

// GetXSToken requests an X-S signing token for the given endpoint and payload
func (m *Manager) GetXSToken(ctx context.Context, endpoint string, payload interface{}) (*XSToken, error) {
	reqBody := xsTokenRequest{
		Endpoint: endpoint,
		Payload:  payload,
		A1:       m.deviceID,
	}

	m.logger.DebugWithFields("requesting X-S token", map[string]interface{}{
		"endpoint": endpoint,
	})

	var token XSToken
	err := m.postJSON(ctx, "/api/v1/tokens/xs", reqBody, &token)
	if err != nil {
		logger.LogTokenFetch("x_s", false, err)
		return nil, err
	}

	logger.LogTokenFetch("x_s", false, nil)
	return &token, nil
}

// GetXSCommonToken returns an X-S-Common token, from the local cache when a
// cached entry has not reached its declared expiry
func (m *Manager) GetXSCommonToken(ctx context.Context) (string, error) {
	key := m.cacheKey()

	if m.cacheXSCommon {
		m.mu.Lock()
		cached, ok := m.cache[key]
		m.mu.Unlock()
		if ok && cached.expiresAt > m.now().UnixMilli() {
			logger.LogTokenFetch("x_s_common", true, nil)
			return cached.token, nil
		}
	}

	reqBody := xsCommonRequest{
		A1:          m.deviceID,
		Fingerprint: m.fingerprint,
	}

	var resp xsCommonResponse
	err := m.postJSON(ctx, "/api/v1/tokens/xs-common", reqBody, &resp)
	if err != nil {
		logger.LogTokenFetch("x_s_common", false, err)
		return "", err
	}

	if m.cacheXSCommon {
		m.mu.Lock()
		m.cache[key] = cachedToken{token: resp.XSCommon, expiresAt: resp.ExpiresAt}
		m.mu.Unlock()
	}

	logger.LogTokenFetch("x_s_common", false, nil)
	return resp.XSCommon, nil
}

// cacheKey keys cached X-S-Common tokens by device ID and fingerprint
func (m *Manager) cacheKey() string {
	deviceID := m.deviceID
	if deviceID == "" {
		deviceID = "default"
	}
	// json.Marshal emits map keys in sorted order, giving a stable key
	fp, _ := json.Marshal(m.fingerprint)
	return deviceID + ":" + string(fp)
}

// ClearCache clears the local token cache
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]cachedToken)
}

// CacheSize returns the number of cached X-S-Common tokens
func (m *Manager) CacheSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

// HealthCheck reports whether the token server is responding
func (m *Manager) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.serverURL+"/health", nil)
	if err != nil {
		return false
	}
	m.setHeaders(req)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.WithError(err).Warn("token server health check failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// GetStats fetches token generation statistics from the server
func (m *Manager) GetStats(ctx context.Context) (Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.serverURL+"/api/v1/stats", nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create stats request: %v", err)
	}
	m.setHeaders(req)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeToken, 0, "failed to get stats: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, m.serverError(resp)
	}

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse stats: %v", err)
	}

	return stats, nil
}

// postJSON posts a JSON body to the token server with retry on transient failures
func (m *Manager) postJSON(ctx context.Context, path string, body interface{}, target interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to marshal request: %v", err)
	}

	cfg := *m.retryCfg
	cfg.Context = ctx

	return retry.Do(func() error {
		return m.doPost(ctx, path, data, target)
	}, &cfg)
}

// doPost performs a single POST to the token server
func (m *Manager) doPost(ctx context.Context, path string, data []byte, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.serverURL+path, bytes.NewReader(data))
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	m.setHeaders(req)

	start := time.Now()
	resp, err := m.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		m.logger.ErrorWithFields("token server request failed", map[string]interface{}{
			"path":     path,
			"error":    err.Error(),
			"duration": duration,
		})
		return errs.New(errs.ErrorTypeToken, 0, "token server unreachable: %v", err)
	}
	defer resp.Body.Close()

	m.logger.DebugWithFields("token server request completed", map[string]interface{}{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode != http.StatusOK {
		return m.serverError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(respBody, target); err != nil {
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse token response: %v", err)
	}

	return nil
}

// serverError maps an unexpected token server response to a typed error
func (m *Manager) serverError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode, "token server rejected API key")
	case http.StatusTooManyRequests:
		return errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "token server rate limit exceeded")
	default:
		if resp.StatusCode >= 500 {
			return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "token server error: %s", strings.TrimSpace(string(body)))
		}
		return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, "unexpected token server response: %s", strings.TrimSpace(string(body)))
	}
}

// setHeaders applies authentication and content headers
func (m *Manager) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")
}
