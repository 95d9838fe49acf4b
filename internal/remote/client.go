// Package remote talks the relay wire protocol: a plain GET returns the full
// note listing, POSTs carry an action field (save, delete, rename) keyed by
// note title. There is no authentication beyond the opacity of the endpoint
// URL and no retries; callers decide how to handle failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"synapse/internal/note"
)

var (
	// ErrUnavailable classifies transport-level failures.
	ErrUnavailable = errors.New("remote unavailable")
	// ErrBadStatus classifies non-2xx responses.
	ErrBadStatus = errors.New("remote returned error status")
	// ErrBadPayload classifies responses that are not the expected JSON shape.
	ErrBadPayload = errors.New("remote returned malformed payload")
)

type Status string

const (
	StatusSuccess      Status = "success"
	StatusHTTPError    Status = "httpError"
	StatusNetworkError Status = "networkError"
)

// Outcome is the result of a save, delete or rename request.
type Outcome struct {
	Status Status
	Err    error
}

func (o Outcome) OK() bool { return o.Status == StatusSuccess }

const DefaultTimeout = 15 * time.Second

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// FetchAll returns the full remote listing. Unlike the save-side calls it
// returns a typed error instead of failing soft: the sync coordinator decides
// whether an empty cycle is acceptable, not this adapter.
func (c *Client) FetchAll(ctx context.Context) ([]note.Note, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var notes []note.Note
	if err := json.Unmarshal(body, &notes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return notes, nil
}

type actionRequest struct {
	Action       string `json:"action"`
	Title        string `json:"title,omitempty"`
	Content      string `json:"content,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
	OldTitle     string `json:"oldTitle,omitempty"`
	NewTitle     string `json:"newTitle,omitempty"`
}

type actionResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (c *Client) Save(ctx context.Context, n note.Note) Outcome {
	return c.post(ctx, actionRequest{
		Action:       "save",
		Title:        n.Title,
		Content:      n.Content,
		LastModified: n.LastModified,
	})
}

func (c *Client) Delete(ctx context.Context, title string) Outcome {
	return c.post(ctx, actionRequest{Action: "delete", Title: title})
}

func (c *Client) Rename(ctx context.Context, oldTitle, newTitle string) Outcome {
	return c.post(ctx, actionRequest{Action: "rename", OldTitle: oldTitle, NewTitle: newTitle})
}

func (c *Client) post(ctx context.Context, body actionRequest) Outcome {
	payload, err := json.Marshal(body)
	if err != nil {
		return Outcome{Status: StatusNetworkError, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Outcome{Status: StatusNetworkError, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Status: StatusNetworkError, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{Status: StatusHTTPError, Err: fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)}
	}
	var parsed actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Outcome{Status: StatusHTTPError, Err: fmt.Errorf("%w: %v", ErrBadPayload, err)}
	}
	if parsed.Status == "error" {
		return Outcome{Status: StatusHTTPError, Err: fmt.Errorf("%w: %s", ErrBadStatus, parsed.Error)}
	}
	return Outcome{Status: StatusSuccess}
}
