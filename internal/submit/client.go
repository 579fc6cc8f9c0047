// Package submit delivers a completed checklist to the sheet-generation
// service.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/tidwall/gjson"
)

// ContentType is deliberately a CORS "simple" type so browser-hosted
// endpoints accept the request without a preflight.
const ContentType = "text/plain;charset=utf-8"

// SubmissionIDHeader carries a per-attempt id for downstream correlation
const SubmissionIDHeader = "X-Submission-Id"

// maxResponseBytes bounds how much of the response body is read
const maxResponseBytes = 1 << 20

// ErrNoEndpoint is returned when no submission URL is configured
var ErrNoEndpoint = errors.New("no submission endpoint configured")

// Error is a submission the service did not accept
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Submitter sends a payload and returns the service's receipt
type Submitter interface {
	Submit(ctx context.Context, payload domain.Payload) (domain.Receipt, error)
}

// Client posts payloads to a fixed URL
type Client struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each attempt. Zero leaves the transport's behaviour.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// NewClient creates a client for the given endpoint URL
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends one attempt. It fails on transport errors, non-2xx statuses
// and responses whose "ok" field is not the JSON literal true.
func (c *Client) Submit(ctx context.Context, payload domain.Payload) (domain.Receipt, error) {
	if c.url == "" {
		return domain.Receipt{}, ErrNoEndpoint
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	id := uuid.New().String()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set(SubmissionIDHeader, id)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to reach submission endpoint: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to read response: %w", err)
	}

	return parseResponse(resp.StatusCode, data, id, c.now())
}

// parseResponse interprets the service reply. A body that is not valid JSON
// is treated as an empty object.
func parseResponse(status int, data []byte, id string, at time.Time) (domain.Receipt, error) {
	if !gjson.ValidBytes(data) {
		data = []byte("{}")
	}
	result := gjson.ParseBytes(data)

	okStatus := status >= 200 && status < 300
	if !okStatus || result.Get("ok").Type != gjson.True {
		msg := result.Get("error")
		if msg.Type == gjson.String && msg.Str != "" {
			return domain.Receipt{}, &Error{StatusCode: status, Message: msg.Str}
		}
		return domain.Receipt{}, &Error{
			StatusCode: status,
			Message:    fmt.Sprintf("Submit failed (HTTP %d)", status),
		}
	}

	sheets := make([]string, 0)
	if created := result.Get("sheetsCreated"); created.IsArray() {
		for _, value := range created.Array() {
			sheets = append(sheets, value.String())
		}
	}

	return domain.Receipt{
		SubmissionID:  id,
		SheetsCreated: sheets,
		SubmittedAt:   at,
	}, nil
}
