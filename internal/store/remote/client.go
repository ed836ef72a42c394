// Package remote implements store.RemoteStore against a hosted
// PostgREST-style data service (Supabase). Each entity operation maps to
// one REST query; the client performs no retries and no fallback of its
// own, that policy lives in internal/db.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tempo/internal/core"
)

const restPrefix = "/rest/v1/"

// Client talks to the remote backend. Construct it once at startup and
// inject it into the facade; it is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ServerError is an error payload produced by the backend itself: the
// query reached the server and the server answered. Callers use it to
// tell "the server said no" apart from "the request never executed".
type ServerError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote: status %d", e.Status)
}

// Ping issues the minimal connectivity probe: a limit-1 select against
// the customers table.
func (c *Client) Ping(ctx context.Context) error {
	var rows []struct {
		ID string `json:"id"`
	}
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	return c.do(ctx, http.MethodGet, "customers", q, nil, &rows)
}

// Customers

func (c *Client) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "name.asc")
	var out []core.Customer
	if err := c.do(ctx, http.MethodGet, "customers", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*core.Customer, error) {
	var out []core.Customer
	if err := c.do(ctx, http.MethodGet, "customers", eqID(id), nil, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (c *Client) CreateCustomer(ctx context.Context, nc core.NewCustomer) (*core.Customer, error) {
	var out []core.Customer
	if err := c.do(ctx, http.MethodPost, "customers", nil, nc, &out); err != nil {
		return nil, err
	}
	return first(out)
}

// Projects

func (c *Client) ListProjects(ctx context.Context) ([]core.Project, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "name.asc")
	var out []core.Project
	if err := c.do(ctx, http.MethodGet, "projects", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListProjectsByCustomer(ctx context.Context, customerID string) ([]core.Project, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("customer_id", "eq."+customerID)
	q.Set("order", "name.asc")
	var out []core.Project
	if err := c.do(ctx, http.MethodGet, "projects", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*core.Project, error) {
	var out []core.Project
	if err := c.do(ctx, http.MethodGet, "projects", eqID(id), nil, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (c *Client) CreateProject(ctx context.Context, np core.NewProject) (*core.Project, error) {
	var out []core.Project
	if err := c.do(ctx, http.MethodPost, "projects", nil, np, &out); err != nil {
		return nil, err
	}
	return first(out)
}

// Time entries

func (c *Client) ListTimeEntries(ctx context.Context) ([]core.TimeEntry, error) {
	return c.listEntries(ctx, "", "")
}

func (c *Client) ListTimeEntriesByUser(ctx context.Context, userID string) ([]core.TimeEntry, error) {
	return c.listEntries(ctx, "user_id", userID)
}

func (c *Client) ListTimeEntriesByCustomer(ctx context.Context, customerID string) ([]core.TimeEntry, error) {
	return c.listEntries(ctx, "customer_id", customerID)
}

func (c *Client) ListTimeEntriesByProject(ctx context.Context, projectID string) ([]core.TimeEntry, error) {
	return c.listEntries(ctx, "project_id", projectID)
}

func (c *Client) listEntries(ctx context.Context, filterCol, filterVal string) ([]core.TimeEntry, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	if filterCol != "" {
		q.Set(filterCol, "eq."+filterVal)
	}
	var out []core.TimeEntry
	if err := c.do(ctx, http.MethodGet, "time_entries", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTimeEntry(ctx context.Context, ne core.NewTimeEntry) (*core.TimeEntry, error) {
	var out []core.TimeEntry
	if err := c.do(ctx, http.MethodPost, "time_entries", nil, ne, &out); err != nil {
		return nil, err
	}
	return first(out)
}

func (c *Client) UpdateTimeEntry(ctx context.Context, id string, u core.TimeEntryUpdate) (*core.TimeEntry, error) {
	var out []core.TimeEntry
	if err := c.do(ctx, http.MethodPatch, "time_entries", eqID(id), u, &out); err != nil {
		return nil, err
	}
	return first(out)
}

func (c *Client) DeleteTimeEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "time_entries", eqID(id), nil, nil)
}

// do builds and executes one REST request. Non-2xx responses become
// *ServerError; transport and decode failures are returned as-is.
func (c *Client) do(ctx context.Context, method, table string, query url.Values, body, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	u.Path = restPrefix + table
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &ServerError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		// The error body is best-effort; the status alone is enough to
		// classify the failure as server-reported.
		_ = json.Unmarshal(raw, serr)
		return serr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, table, err)
	}
	return nil
}

func eqID(id string) url.Values {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	return q
}

// first unwraps the single-row representation PostgREST returns for
// writes. An empty representation is a server answer, not a failure: the
// statement executed and matched no rows, so the caller gets the same
// (nil, nil) not-found shape as the read paths.
func first[T any](rows []T) (*T, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
