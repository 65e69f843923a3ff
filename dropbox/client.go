package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jumpaku/go-cloudindex"
)

// DefaultBaseURL is the Dropbox RPC endpoint.
const DefaultBaseURL = "https://api.dropboxapi.com/2"

// Client is an HTTP client for the Dropbox RPC API. Every endpoint is a
// POST with a JSON body and a JSON response.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a new Dropbox API client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL, accessToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// statusError carries the HTTP status and Dropbox error summary of a failed
// call so callers can branch on vendor-specific conditions.
type statusError struct {
	Code    int
	Summary string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("dropbox api status %d: %s", e.Code, e.Summary)
}

// rpc performs one Dropbox RPC call. A nil request marshals to JSON null,
// which the API expects for argument-less endpoints. A nil response
// discards the body.
func (c *Client) rpc(ctx context.Context, path string, request, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return cloudindex.NewAPIError("failed to marshal request body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return cloudindex.NewAPIError("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return cloudindex.NewAPIError("failed to execute request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return newStatusError(path, resp)
	}
	if response == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		if err != nil {
			return cloudindex.NewIOError("failed to drain response body", err)
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return cloudindex.NewAPIError("failed to decode response", err)
	}
	return nil
}

func newStatusError(path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body apiErrorBody
	_ = json.Unmarshal(data, &body)
	summary := body.ErrorSummary
	if summary == "" {
		summary = strings.TrimSpace(string(data))
	}
	cause := &statusError{Code: resp.StatusCode, Summary: summary}
	msg := fmt.Sprintf("call to '%s' failed", path)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return cloudindex.NewAuthError(msg, cause)
	case resp.StatusCode == http.StatusTooManyRequests:
		return cloudindex.NewRateLimitError(msg, cause)
	case resp.StatusCode == http.StatusConflict && strings.Contains(summary, "not_found"):
		return cloudindex.NewNotFoundError(msg, cause)
	default:
		return cloudindex.NewAPIError(msg, cause)
	}
}
