package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
	"golang.org/x/net/publicsuffix"
)

const (
	// CSRFHeader carries the anti-forgery token in both directions
	CSRFHeader = "X-CSRF-Token"

	defaultTimeout = 10 * time.Second
)

// PaymentWebClient talks to the payment web application on behalf of one
// session. Every response that carries a CSRF token updates the session.
type PaymentWebClient struct {
	baseURL    string
	httpClient *http.Client
	session    *entity.Session
	logger     logger.Logger
}

// NewHTTPClient creates an http.Client with its own cookie jar, which holds the
// refresh and CSRF cookies issued by the server
func NewHTTPClient(timeout time.Duration, transport http.RoundTripper) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		Jar:       jar,
	}, nil
}

// NewPaymentWebClient creates a client for the application at baseURL
func NewPaymentWebClient(baseURL string, session *entity.Session, httpClient *http.Client, log logger.Logger) (*PaymentWebClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if httpClient == nil {
		httpClient, err = NewHTTPClient(defaultTimeout, nil)
		if err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &PaymentWebClient{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: httpClient,
		session:    session,
		logger:     log,
	}, nil
}

// Session returns the session the client reads and updates
func (c *PaymentWebClient) Session() *entity.Session {
	return c.session
}

// Refresh issues an unauthenticated GET to the refresh endpoint. The CSRF
// token is captured whatever the status.
func (c *PaymentWebClient) Refresh(ctx context.Context) (string, error) {
	body, err := c.do(ctx, c.httpClient, http.MethodGet, entity.RefreshPath, nil, nil, false)
	if err != nil {
		return "", err
	}
	return decodeToken(body), nil
}

// LoadView fetches the HTML fragment at path using the bearer token
func (c *PaymentWebClient) LoadView(ctx context.Context, path string) (string, error) {
	headers := http.Header{}
	c.setBearer(headers)
	headers.Set("Accept", "text/html")

	body, err := c.do(ctx, c.httpClient, http.MethodGet, path, nil, headers, false)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Login posts url-encoded credentials and returns the bearer token
func (c *PaymentWebClient) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setCSRF(headers)

	body, err := c.do(ctx, c.httpClient, http.MethodPost, entity.LoginPath, strings.NewReader(form.Encode()), headers, false)
	if err != nil {
		return "", err
	}
	return decodeToken(body), nil
}

// CreateTransaction posts req as JSON to the payment endpoint
func (c *PaymentWebClient) CreateTransaction(ctx context.Context, req *entity.TransactionRequest) (*entity.TransactionResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	c.setCSRF(headers)
	c.setBearer(headers)

	body, err := c.do(ctx, c.httpClient, http.MethodPost, entity.PaymentPath, bytes.NewReader(payload), headers, false)
	if err != nil {
		return nil, err
	}

	result := &entity.TransactionResult{Raw: json.RawMessage(body)}
	if len(bytes.TrimSpace(body)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}
	return result, nil
}

// Logout asks the server to clear the refresh cookie. The redirect the server
// answers with is not followed.
func (c *PaymentWebClient) Logout(ctx context.Context) error {
	noRedirect := *c.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	headers := http.Header{}
	c.setBearer(headers)

	_, err := c.do(ctx, &noRedirect, http.MethodGet, entity.LogoutPath, nil, headers, true)
	return err
}

func (c *PaymentWebClient) setBearer(headers http.Header) {
	if token, ok := c.session.Token(); ok && token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}
}

func (c *PaymentWebClient) setCSRF(headers http.Header) {
	if csrf, ok := c.session.CSRFToken(); ok {
		headers.Set(CSRFHeader, csrf)
	}
}

// do executes one request and returns the body of a successful response.
// A 3xx status counts as success only when acceptRedirect is set.
func (c *PaymentWebClient) do(ctx context.Context, client *http.Client, method, path string, body io.Reader, headers http.Header, acceptRedirect bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Error closing response body", map[string]interface{}{
				"path":  path,
				"error": closeErr.Error(),
			})
		}
	}()

	c.captureCSRF(resp, path)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if acceptRedirect && resp.StatusCode >= 300 && resp.StatusCode < 400 {
		success = true
	}
	if !success {
		return nil, &ResponseError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

func (c *PaymentWebClient) captureCSRF(resp *http.Response, path string) {
	csrf := resp.Header.Get(CSRFHeader)
	if csrf == "" {
		return
	}
	if current, ok := c.session.CSRFToken(); ok && current == csrf {
		return
	}
	c.session.SetCSRFToken(csrf)
	c.logger.Debug("CSRF token updated", map[string]interface{}{
		"path": path,
	})
}

// decodeToken extracts a bearer token from a response body. The server writes
// the token through a JSON encoder, so a JSON string literal is unquoted; any
// other JSON value counts as no token.
func decodeToken(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var token string
		if err := json.Unmarshal(trimmed, &token); err != nil {
			return string(trimmed)
		}
		return token
	case '{', '[':
		return ""
	}
	if string(trimmed) == "null" {
		return ""
	}
	return string(trimmed)
}
