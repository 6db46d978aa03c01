package xhs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"xhsclient/pkg/config"
	"xhsclient/pkg/cookies"
	errs "xhsclient/pkg/errors"
	"xhsclient/pkg/logger"
	"xhsclient/pkg/ratelimit"
	"xhsclient/pkg/retry"
	"xhsclient/pkg/token"
)

// TokenProvider supplies the signing headers the web API requires.
// Implemented by token.Manager; the signing algorithm itself lives on the
// remote token server.
type TokenProvider interface {
	GetXSToken(ctx context.Context, endpoint string, payload interface{}) (*token.XSToken, error)
	GetXSCommonToken(ctx context.Context) (string, error)
}

// ResponseRecorder receives every decoded API response, e.g. for archiving
type ResponseRecorder interface {
	Record(apiType string, metadata map[string]interface{}, response interface{}) error
}

// Client talks to the XiaoHongShu web API. Every request is signed with
// tokens from the TokenProvider and carries the browser-exported cookies.
type Client struct {
	httpClient *http.Client
	tokens     TokenProvider
	jar        *cookies.Jar
	baseURL    string
	userAgent  string
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	recorder   ResponseRecorder
	logger     logger.Logger
}

// New creates a client from the application configuration. It loads the
// cookie file, builds a token manager bound to the cookie's device ID and
// verifies that the token server is responding.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	jar, err := cookies.Load(cfg.XHS.CookiesPath)
	if err != nil {
		return nil, err
	}

	deviceID, err := jar.DeviceID()
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Options{
		ServerURL:          cfg.TokenServer.URL,
		APIKey:             cfg.TokenServer.APIKey,
		Timeout:            cfg.TokenServer.Timeout,
		HealthTimeout:      cfg.TokenServer.HealthTimeout,
		CacheXSCommon:      cfg.TokenServer.CacheXSCommon,
		InsecureSkipVerify: cfg.TokenServer.InsecureSkipVerify,
		DeviceID:           deviceID,
		Retry:              &cfg.Retry,
	}, log)
	if err != nil {
		return nil, err
	}

	if !tokens.HealthCheck(ctx) {
		return nil, errs.New(errs.ErrorTypeToken, 0, "token server is not responding: %s", cfg.TokenServer.URL)
	}

	log.InfoWithFields("token server is healthy", map[string]interface{}{
		"server": cfg.TokenServer.URL,
	})

	client := NewWithTokenProvider(tokens, jar, cfg, log)
	return client, nil
}

// NewWithTokenProvider creates a client with an externally built token
// provider. Used by tests and by callers that manage the token manager
// themselves.
func NewWithTokenProvider(tokens TokenProvider, jar *cookies.Jar, cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.XHS.Timeout,
		},
		tokens:    tokens,
		jar:       jar,
		baseURL:   BaseURL,
		userAgent: cfg.XHS.UserAgent,
		limiter:   limiter,
		retryCfg:  retry.FromConfig(&cfg.Retry, log),
		logger:    log,
	}
}

// SetRecorder attaches a response recorder; pass nil to disable
func (c *Client) SetRecorder(recorder ResponseRecorder) {
	c.recorder = recorder
}

// SetBaseURL overrides the API base URL (used by tests)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// DeviceID returns the a1 device ID from the loaded cookies
func (c *Client) DeviceID() string {
	return c.jar.Get(cookies.DeviceIDCookie)
}

// post signs and executes one API call, decoding data into target
func (c *Client) post(ctx context.Context, apiType, endpoint string, payload, target interface{}) error {
	if c.limiter != nil && !c.limiter.Allow() {
		logger.LogRateLimit(endpoint, 60)
		c.limiter.Wait()
	}

	xs, err := c.tokens.GetXSToken(ctx, endpoint, payload)
	if err != nil {
		return fmt.Errorf("failed to get X-S token: %w", err)
	}

	xsCommon, err := c.tokens.GetXSCommonToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get X-S-Common token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to marshal payload: %v", err)
	}

	cfg := *c.retryCfg
	cfg.Context = ctx

	err = retry.Do(func() error {
		return c.doPost(ctx, endpoint, body, xs, xsCommon, target)
	}, &cfg)
	if err != nil {
		return err
	}

	if c.recorder != nil {
		metadata := map[string]interface{}{"endpoint": endpoint}
		if err := c.recorder.Record(apiType, metadata, target); err != nil {
			// Archiving is best effort; the response is already decoded
			c.logger.WithError(err).Warn("failed to record API response")
		}
	}

	return nil
}

// doPost performs a single signed POST against the web API
func (c *Client) doPost(ctx context.Context, endpoint string, body []byte, xs *token.XSToken, xsCommon string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	c.setHeaders(req, xs, xsCommon)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
			"duration": duration,
		})
		return errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkResponseStatus(resp, endpoint); err != nil {
		return err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		preview := string(respBody)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"endpoint":     endpoint,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	if !env.Success {
		c.logger.WarnWithFields("API returned failure", map[string]interface{}{
			"endpoint": endpoint,
			"code":     env.Code,
			"msg":      env.Msg,
		})
		return apiError(env.Code, env.Msg)
	}

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse data section: %v", err)
		}
	}

	return nil
}

// checkResponseStatus maps HTTP status codes to typed errors
func (c *Client) checkResponseStatus(resp *http.Response, endpoint string) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
		})
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode, "authentication required; cookies may be stale")
	case http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
		})
		return errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	default:
		if resp.StatusCode >= 500 {
			c.logger.ErrorWithFields("server error", map[string]interface{}{
				"status":   resp.StatusCode,
				"endpoint": endpoint,
			})
			return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "server error")
		}
		if resp.StatusCode >= 400 {
			return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
		}
		return nil
	}
}

// apiError maps an envelope failure to a typed error. Code -100 means the
// session is no longer valid; 461/471 are the anti-bot verification codes.
func apiError(code int, msg string) error {
	switch code {
	case -100:
		return errs.New(errs.ErrorTypeAuth, code, "session expired: %s", msg)
	case 461, 471:
		return errs.New(errs.ErrorTypeAuth, code, "verification required, tokens were rejected: %s", msg)
	case -510001:
		return errs.New(errs.ErrorTypeNotFound, code, "resource not found: %s", msg)
	default:
		return errs.New(errs.ErrorTypeUnknown, code, "API returned failure: %s", msg)
	}
}

// setHeaders applies browser-like headers, signing tokens and cookies
func (c *Client) setHeaders(req *http.Request, xs *token.XSToken, xsCommon string) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Origin", Origin)
	req.Header.Set("Referer", Referer)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-S", xs.XS)
	req.Header.Set("X-S-Common", xsCommon)
	req.Header.Set("X-T", fmt.Sprintf("%d", xs.XT))

	for _, cookie := range c.jar.HTTPCookies() {
		req.AddCookie(cookie)
	}
}
