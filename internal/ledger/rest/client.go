// Package rest talks to the ledger backend over JSON/HTTP.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"tripledger/internal/core"
	"tripledger/internal/ledger"
)

// Default endpoint paths, relative to the base URL.
const (
	DefaultEntriesPath  = "/ledger/entries"
	DefaultFieldPath    = "/ledger/trips/field"
	DefaultTransferPath = "/ledger/allowances/transfer"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

type Client struct {
	http         *http.Client
	baseURL      string
	entriesPath  string
	fieldPath    string
	transferPath string
	logger       *slog.Logger
}

var _ ledger.Backend = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPaths overrides the endpoint paths. Empty values keep the default.
func WithPaths(entries, field, transfer string) Option {
	return func(c *Client) {
		if entries != "" {
			c.entriesPath = entries
		}
		if field != "" {
			c.fieldPath = field
		}
		if transfer != "" {
			c.transferPath = transfer
		}
	}
}

// WithLogger sets the logger used for skipped rows.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the backend rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("missing ledger API base URL")
	}
	c := &Client{
		http:         newHTTPClientWithPooling(timeout),
		baseURL:      baseURL,
		entriesPath:  DefaultEntriesPath,
		fieldPath:    DefaultFieldPath,
		transferPath: DefaultTransferPath,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling,
// bounded timeouts and keep-alive settings
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		// The backend is a single host
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ListEntries fetches the whole ledger. Rows that are not JSON objects are
// skipped; everything else is coerced field by field.
func (c *Client) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	const op = "list entries"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.entriesPath, nil)
	if err != nil {
		return nil, &ledger.UnavailableError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ledger.UnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var msgErr error
		if msg := errorMessage(body); msg != "" {
			msgErr = errors.New(msg)
		}
		return nil, &ledger.UnavailableError{Op: op, StatusCode: resp.StatusCode, Err: msgErr}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ledger.UnavailableError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	rows, err := listingRows(body)
	if err != nil {
		return nil, &ledger.UnavailableError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	entries := make([]core.LedgerEntry, 0, len(rows))
	for i, raw := range rows {
		var e core.LedgerEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			c.logger.WarnContext(ctx, "Skipping unreadable ledger row", "index", i, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// listingRows accepts a bare array or an object wrapping it under "data"
// or "entries".
func listingRows(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	var rows []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}
		return rows, nil
	}
	var wrapped struct {
		Data    []json.RawMessage `json:"data"`
		Entries []json.RawMessage `json:"entries"`
		Error   string            `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	if wrapped.Error != "" {
		return nil, errors.New(wrapped.Error)
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return wrapped.Entries, nil
}

// UpdateTripField posts one field edit.
func (c *Client) UpdateTripField(ctx context.Context, u core.FieldUpdate) error {
	if err := u.Field.Validate(); err != nil {
		return err
	}
	_, err := c.postMutation(ctx, "update trip field", c.fieldPath, u)
	return err
}

// TransferAllowances posts an allowance transfer and returns the moved count.
func (c *Client) TransferAllowances(ctx context.Context, r core.TransferRequest) (int, error) {
	result, err := c.postMutation(ctx, "transfer allowances", c.transferPath, r)
	if err != nil {
		return 0, err
	}
	return result.count(), nil
}

type mutationResult struct {
	Error       string `json:"error"`
	Transferred *int   `json:"transferred"`
	Count       *int   `json:"count"`
	Updated     *int   `json:"updated"`
}

func (m mutationResult) count() int {
	for _, n := range []*int{m.Transferred, m.Count, m.Updated} {
		if n != nil {
			return *n
		}
	}
	return 0
}

func (c *Client) postMutation(ctx context.Context, op, path string, payload any) (mutationResult, error) {
	var result mutationResult
	body, err := json.Marshal(payload)
	if err != nil {
		return result, &ledger.MutationError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return result, &ledger.MutationError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return result, &ledger.MutationError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(bytes.TrimSpace(raw)) > 0 {
		// A bare number is accepted as the transferred count.
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			result.Count = &n
		} else {
			_ = json.Unmarshal(raw, &result)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &ledger.MutationError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(result.Error)}
	}
	if strings.TrimSpace(result.Error) != "" {
		return result, &ledger.MutationError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(result.Error)}
	}
	return result, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}
