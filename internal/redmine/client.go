package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const apiKeyHeader = "X-Redmine-API-Key"

// Client talks to any Redmine instance; the base URL and key travel with
// each call so queued requests keep the target they were created with.
type Client struct {
	httpClient *http.Client
	cache      *ActivityCache
	logger     *slog.Logger
}

func NewClient(timeout time.Duration, cacheTTL time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:  NewActivityCache(cacheTTL),
		logger: logger,
	}
}

// doRequest sends a single request without retrying. A non-2xx answer
// whose body could be read yields *APIError; everything else that goes
// wrong on the way is returned as a plain error.
func (c *Client) doRequest(ctx context.Context, method string, target Target, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := strings.TrimRight(target.URL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set(apiKeyHeader, target.APIKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("redmine API request", "method", method, "url", url)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("redmine unreachable", "method", method, "url", url, "error", err, "elapsed", time.Since(requestStart))
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("redmine API response", "method", method, "url", url, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "method", method, "url", url, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// CreateTimeEntry posts entry to {target.URL}/time_entries.json.
func (c *Client) CreateTimeEntry(ctx context.Context, target Target, entry TimeEntry) error {
	data, err := c.doRequest(ctx, http.MethodPost, target, "/time_entries.json", timeEntryEnvelope{TimeEntry: entry})
	if err != nil {
		return fmt.Errorf("creating time entry: %w", err)
	}

	var created createdTimeEntry
	if err := json.Unmarshal(data, &created); err != nil {
		// Accepted all the same; some proxies answer 204 with no body.
		c.logger.Debug("unparseable time entry response", "issue", entry.IssueID, "error", err)
		return nil
	}
	c.logger.Info("time entry created", "issue", entry.IssueID, "id", created.TimeEntry.ID, "hours", entry.Hours)
	return nil
}

func (c *Client) ListActivities(ctx context.Context, target Target) ([]Activity, error) {
	if cached := c.cache.Get(target.URL); cached != nil {
		return cached, nil
	}

	data, err := c.doRequest(ctx, http.MethodGet, target, "/enumerations/time_entry_activities.json", nil)
	if err != nil {
		return nil, fmt.Errorf("getting activities: %w", err)
	}

	var resp activitiesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing activities response: %w", err)
	}

	c.cache.Set(target.URL, resp.Activities)
	return resp.Activities, nil
}

func (c *Client) CurrentUser(ctx context.Context, target Target) (*User, error) {
	data, err := c.doRequest(ctx, http.MethodGet, target, "/users/current.json", nil)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}

	var resp userResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing user response: %w", err)
	}

	return &resp.User, nil
}
