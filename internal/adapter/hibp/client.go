// Package hibp provides a client for the HaveIBeenPwned breached-account API.
package hibp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// NotFoundMessage is the digest returned when the service has no record for
// the email.
const NotFoundMessage = "Good news! This email hasn't been found in any known data breaches."

// userAgent is the fixed client identifier the breach service requires.
const userAgent = "breachchat"

// AccountChecker defines the breach lookup operation.
type AccountChecker interface {
	// CheckAccount looks up an email address and returns a human-readable
	// digest of the result.
	CheckAccount(ctx context.Context, email string) (string, error)
}

// Client queries the breach-database service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Ensure Client implements AccountChecker interface.
var _ AccountChecker = (*Client)(nil)

// NewClient creates a new breach-database client. No timeout is configured
// beyond the transport default.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// CheckAccount performs one authenticated lookup. A 404 from the service means
// the email has no known breaches; any other non-2xx status is an error.
func (c *Client) CheckAccount(ctx context.Context, email string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v3/breachedaccount/%s", c.baseURL, url.PathEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("hibp-api-key", c.apiKey)
	req.Header.Set("user-agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return NotFoundMessage, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("breach lookup failed [%d]", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var breaches []json.RawMessage
	if err := json.Unmarshal(body, &breaches); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var records bytes.Buffer
	if err := json.Compact(&records, body); err != nil {
		return "", fmt.Errorf("failed to serialize records: %w", err)
	}

	return fmt.Sprintf("This email was found in %d data breach(es). Here are the details: %s",
		len(breaches), records.String()), nil
}
