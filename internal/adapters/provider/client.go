// Package provider implements the publish gateway over the external
// platform's HTTP API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/draftline/draftline-go/config"
	"github.com/draftline/draftline-go/internal/core"
)

// maxErrorBodyBytes bounds how much of an error response is read. The
// provider embeds the duplicate-submission details in the body text, so
// the snippet must be long enough to carry the urn reference.
const maxErrorBodyBytes = 2048

// Client talks to the provider's post endpoint. It implements
// core.PublishGateway.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  oauth2.TokenSource
	logger  *slog.Logger
}

var _ core.PublishGateway = (*Client)(nil)

// ClientOptions holds the dependencies for creating a Client.
type ClientOptions struct {
	Config config.ProviderConfig
	Logger *slog.Logger

	// TokenSource overrides the static access token from config. Use it
	// when tokens are minted per account elsewhere in the deployment.
	TokenSource oauth2.TokenSource

	// HTTPClient overrides the default client in tests.
	HTTPClient *http.Client
}

// NewClient creates a provider client from the given options.
func NewClient(opts ClientOptions) (*Client, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if cfg.BaseURL == "" {
		return nil, errors.New("provider base URL is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens := opts.TokenSource
	if tokens == nil && cfg.AccessToken != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
		tokens:  tokens,
		logger:  logger.With("component", "provider"),
	}, nil
}

type publishRequest struct {
	AccountRef string `json:"account_ref"`
	Content    string `json:"content"`
}

type publishResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Publish submits the content for the given account and returns the
// provider's post identifier. Failures surface as errors whose text
// carries the provider's status and message verbatim; the retry policy
// classifies on that text.
func (c *Client) Publish(ctx context.Context, accountRef, content string) (string, error) {
	body, err := json.Marshal(publishRequest{AccountRef: accountRef, Content: content})
	if err != nil {
		return "", fmt.Errorf("encode publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/posts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if err := c.authorize(req); err != nil {
		return "", err
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "publish call completed",
		"account_ref", accountRef,
		"status", resp.StatusCode,
		"elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.statusError(resp)
	}

	var out publishResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodyBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode publish response: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("provider response missing post id")
	}
	return out.ID, nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("provider token: %w", err)
	}
	token.SetAuthHeader(req)
	return nil
}

// statusError turns a non-2xx response into an error preserving the
// provider's own wording. A structured {"message": ...} body is
// preferred; otherwise the raw body snippet is used.
func (c *Client) statusError(resp *http.Response) error {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if readErr != nil || len(raw) == 0 {
		return fmt.Errorf("provider returned %d %s",
			resp.StatusCode, strings.ToLower(http.StatusText(resp.StatusCode)))
	}

	message := strings.TrimSpace(string(raw))
	var structured errorResponse
	if err := json.Unmarshal(raw, &structured); err == nil && structured.Message != "" {
		message = structured.Message
	}

	return fmt.Errorf("provider returned %d %s: %s",
		resp.StatusCode, strings.ToLower(http.StatusText(resp.StatusCode)), message)
}
