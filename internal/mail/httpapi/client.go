// Package httpapi implements the mail store against the webmail REST API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
)

// Client is a thin HTTP client for the webmail REST API. It handles
// Bearer token authentication, JSON marshaling, and automatic retry
// with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

var _ mail.Store = (*Client)(nil)

// NewClient creates a new webmail API client. The baseURL should be the
// root URL of the API (e.g., https://mail.example.com). The token is
// the session JWT used for Bearer authentication.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// pageResponse is the wire shape of a folder page.
type pageResponse struct {
	Emails      []model.Email `json:"emails"`
	TotalEmails int           `json:"totalEmails"`
}

// errorResponse is the wire shape of an API error body.
type errorResponse struct {
	Msg string `json:"msg"`
}

// FetchPage retrieves one page of a folder.
func (c *Client) FetchPage(
	ctx context.Context,
	folder model.Folder,
	page, pageSize int,
) (mail.Page, error) {
	path := fmt.Sprintf(
		"/api/emails/%s?page=%d&limit=%d",
		url.PathEscape(string(folder)), page, pageSize,
	)

	var resp pageResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return mail.Page{}, err
	}

	return mail.Page{
		Emails:     resp.Emails,
		TotalCount: resp.TotalEmails,
	}, nil
}

// Send submits an outgoing email and returns the server's saved copy.
func (c *Client) Send(
	ctx context.Context, email model.Email,
) (model.Email, error) {
	var saved model.Email
	if err := c.do(ctx, http.MethodPost, "/api/emails/send", email, &saved); err != nil {
		return model.Email{}, err
	}
	return saved, nil
}

// SaveDraft persists a draft under its id.
func (c *Client) SaveDraft(ctx context.Context, email model.Email) error {
	return c.do(ctx, http.MethodPost, "/api/emails/draft", email, nil)
}

// ToggleStar flips the star flag of a message.
func (c *Client) ToggleStar(ctx context.Context, id string) error {
	path := "/api/emails/" + url.PathEscape(id) + "/star"
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, JSON (de)serialization, and
// maps response codes onto the mail error taxonomy.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(
			ctx, method, url, bodyReader,
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &mail.RemoteError{
				Op:  method + " " + path,
				Err: err,
			}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf(
				"rate limited (429) on %s %s", method, path,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return &mail.AuthError{
				Message: fmt.Sprintf(
					"session rejected by %s; log in again", c.baseURL,
				),
			}

		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", method, path, mail.ErrNotFound)

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			var apiErr errorResponse
			_ = json.Unmarshal(respBody, &apiErr)
			return &mail.RemoteError{
				Op:      method + " " + path,
				Message: apiErr.Msg,
				Err: fmt.Errorf(
					"unexpected status %d", resp.StatusCode,
				),
			}
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf(
		"max retries (%d) exceeded: %w", c.maxRetries, lastErr,
	)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
