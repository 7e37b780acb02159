// Package client talks to the taskboard HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/board"
	"taskboard/internal/model"
)

// APIError is returned for any non-2xx response. Message carries the
// server's "error" field when there is one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("taskboard: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("taskboard: HTTP %d: %s", e.StatusCode, e.Message)
}

// Client wraps http.Client with the bearer token and base URL of a server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ListTasks fetches every task of the workspace.
func (c *Client) ListTasks(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, error) {
	query := url.Values{"workspace_id": {workspaceID.String()}}
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks?"+query.Encode(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// BulkUpdate sends one batch of status/position writes. The server applies
// it atomically.
func (c *Client) BulkUpdate(ctx context.Context, batch board.Batch) error {
	body := struct {
		Tasks board.Batch `json:"tasks"`
	}{Tasks: batch}
	return c.do(ctx, http.MethodPost, "/tasks/bulk-update", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
