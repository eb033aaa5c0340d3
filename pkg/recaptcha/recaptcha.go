// Package recaptcha verifies human-verification tokens against the
// third-party siteverify endpoint.
package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultVerifyURL is the production siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type Config struct {
	Logger *slog.Logger

	// Secret is the server-side verification secret.
	Secret string

	// VerifyURL overrides the verification endpoint, for tests.
	VerifyURL string

	// HTTPClient overrides the outbound client. Defaults to a client with
	// a 10 second timeout.
	HTTPClient *http.Client
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Secret == "" {
		return errors.New("secret is required")
	}
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return nil
}

type Client struct {
	log *slog.Logger
	cfg Config
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

type verifyResponse struct {
	Success bool `json:"success"`
}

// Verify checks a user-supplied token with the verification service. A false
// result with nil error means the service explicitly rejected the token; a
// non-nil error means the check itself could not be performed and must be
// treated as a server-side failure, not as pass or fail.
func (c *Client) Verify(ctx context.Context, token string) (bool, error) {
	form := url.Values{
		"secret":   {c.cfg.Secret},
		"response": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to create verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verification endpoint returned status %d", resp.StatusCode)
	}

	var parsed verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("failed to decode verification response: %w", err)
	}

	c.log.Debug("recaptcha: verification result", "success", parsed.Success)
	return parsed.Success, nil
}
