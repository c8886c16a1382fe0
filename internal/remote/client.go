package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tbellec/flashdeck/internal/logging"
)

// Client is an HTTP client for the hosted data API. Rows are filtered with
// PostgREST operators (column=eq.value, column=gte.value) and writes ask for
// the stored representation back so server-assigned ids reach the caller.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  logging.Logger

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL, apiKey string, logger logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// SetToken installs the access token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if t := c.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(req.Context(), "remote request failed",
			"method", req.Method, "url", req.URL.Path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote request failed: status %d: %s", resp.StatusCode, msg)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// selectRows fetches rows matching the filters into dest, a pointer to a
// slice of row structs.
func (c *Client) selectRows(ctx context.Context, table string, filters url.Values, dest any) error {
	filters.Set("select", "*")
	req, err := c.newRequest(ctx, http.MethodGet, table, filters, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

// insertRow creates one row and decodes the stored representation into dest.
func (c *Client) insertRow(ctx context.Context, table string, row any, dest any) error {
	payload, err := json.Marshal([]any{row})
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, table, nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")
	return c.do(req, dest)
}

// upsertRows writes rows keyed on their primary key, replacing existing ones.
func (c *Client) upsertRows(ctx context.Context, table string, rows any) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, table, nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	return c.do(req, nil)
}

// DeleteRow removes the row with the given id. Deleting an id the remote
// store never saw succeeds with no effect.
func (c *Client) DeleteRow(ctx context.Context, table, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	req, err := c.newRequest(ctx, http.MethodDelete, table, q, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func sinceFilter(column, value string, since time.Time) url.Values {
	q := url.Values{}
	q.Set(column, "eq."+value)
	if !since.IsZero() {
		q.Set("updated_at", "gte."+since.UTC().Format(time.RFC3339))
	}
	return q
}
