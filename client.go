package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	defaultLoginPath   = "/login"
	defaultRefreshPath = "/tools/refresh-token"
)

// ClientConfig holds backend endpoint configuration.
type ClientConfig struct {
	BaseURL     string
	LoginPath   string
	RefreshPath string

	HTTPClient *http.Client
	Logger     Logger
}

// Client talks to the credential-issuing backend. It implements
// CredentialSource for the Manager and RefreshCoordinator.
type Client struct {
	baseURL     string
	loginPath   string
	refreshPath string
	httpClient  *http.Client
	logger      Logger
}

var _ CredentialSource = (*Client)(nil)

// NewClient applies defaults for any zero-value config field.
func NewClient(cfg ClientConfig) *Client {
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = defaultRefreshPath
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		loginPath:   cfg.LoginPath,
		refreshPath: cfg.RefreshPath,
		httpClient:  client,
		logger:      logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Login exchanges credentials for a bearer token. Backend 4xx
// responses become ErrLoginFailed with the detail body preserved in
// the error metadata.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to encode login payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.loginPath), bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to build login request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("login request failed", "error", err)
		return "", errors.Wrap(err, errors.CategoryOperation, "login request failed").
			WithCode(errors.CodeInternal)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "unable to read login response").
			WithCode(errors.CodeInternal)
	}

	if resp.StatusCode != http.StatusOK {
		detail := errorDetail(body, resp.Status)
		c.logger.Warn("login rejected", "status", resp.StatusCode, "detail", detail)
		return "", errors.New("login rejected: "+detail, errors.CategoryAuth).
			WithTextCode(TextCodeLoginFailed).
			WithCode(errors.CodeUnauthorized).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"detail": detail,
			})
	}

	token, err := decodeTokenResponse(body)
	if err != nil {
		return "", err
	}

	c.logger.Info("login succeeded", "username", username)
	return token, nil
}

// Renew exchanges the current (possibly near-expiry) credential for a
// fresh one. The current token is the proof of identity; the request
// body is empty. A 401 means the session is no longer renewable.
func (c *Client) Renew(ctx context.Context, current string) (string, error) {
	if current == "" {
		return "", ErrNoCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.refreshPath), nil)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to build renewal request")
	}
	req.Header.Set("Authorization", BearerScheme+NormalizeCredential(current))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("renewal request failed", "error", err)
		return "", errors.Wrap(err, errors.CategoryOperation, "credential renewal failed").
			WithTextCode(TextCodeRefreshTransient).
			WithCode(errors.CodeInternal)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "unable to read renewal response").
			WithTextCode(TextCodeRefreshTransient).
			WithCode(errors.CodeInternal)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		detail := errorDetail(body, resp.Status)
		c.logger.Warn("credential renewal unauthorized", "detail", detail)
		return "", errors.New("credential renewal rejected: "+detail, errors.CategoryAuth).
			WithTextCode(TextCodeRefreshUnauthorized).
			WithCode(errors.CodeUnauthorized).
			WithMetadata(map[string]any{"detail": detail})
	}

	if resp.StatusCode != http.StatusOK {
		detail := errorDetail(body, resp.Status)
		c.logger.Warn("credential renewal failed", "status", resp.StatusCode, "detail", detail)
		return "", errors.New("credential renewal failed: "+detail, errors.CategoryOperation).
			WithTextCode(TextCodeRefreshTransient).
			WithCode(errors.CodeInternal).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"detail": detail,
			})
	}

	return decodeTokenResponse(body)
}

func (c *Client) endpoint(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func decodeTokenResponse(body []byte) (string, error) {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "unable to decode token response").
			WithCode(errors.CodeInternal)
	}

	if tr.AccessToken == "" {
		return "", errors.New("token response missing access_token", errors.CategoryOperation).
			WithCode(errors.CodeInternal)
	}

	return NormalizeCredential(tr.AccessToken), nil
}

// errorDetail extracts the backend's {detail} error body, falling back
// to the HTTP status line.
func errorDetail(body []byte, status string) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Detail != "" {
		return er.Detail
	}

	msg := strings.TrimSpace(string(body))
	if msg != "" && len(msg) <= 256 {
		return msg
	}

	return status
}
