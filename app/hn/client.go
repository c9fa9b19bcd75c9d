package hn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotFound marks an item that does not exist upstream. The API answers
// 200 with a literal "null" body for unknown ids; a plain 404 is treated
// the same way. Callers skip such items and never retry them.
var ErrNotFound = errors.New("item not found")

// StatusError is returned for non-200 responses other than 404.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Temporary reports whether the response indicates a transient server
// failure worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500
}

// DecodeError is returned when a 200 response body is not valid JSON for
// the expected shape. Retrying fetches the same malformed body again, so
// callers treat it as terminal.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Client is a thin client for the Hacker News Firebase API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetItem retrieves a single item (story or comment) by id.
func (c *Client) GetItem(ctx context.Context, id int64) (*Item, error) {
	data, err := c.get(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id))
	if err != nil {
		return nil, err
	}

	if isNullBody(data) {
		return nil, ErrNotFound
	}

	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, &DecodeError{What: fmt.Sprintf("item %d", id), Err: err}
	}

	if item.ID == 0 {
		return nil, ErrNotFound
	}

	return &item, nil
}

// GetListing retrieves the ordered id list for a listing endpoint such as
// "topstories" or "beststories".
func (c *Client) GetListing(ctx context.Context, endpoint string) ([]int64, error) {
	data, err := c.get(ctx, fmt.Sprintf("%s/%s.json", c.baseURL, endpoint))
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, &DecodeError{What: fmt.Sprintf("listing %s", endpoint), Err: err}
	}

	return ids, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func isNullBody(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
