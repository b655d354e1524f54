// Package client is the data-access layer for the contract gateway's HTTP API.
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
)

// DefaultErrorMessage is shown when the gateway gives no usable message.
const DefaultErrorMessage = "Something went wrong. Please try again."

const contractsPath = "/api/contracts"

// Contract is a contract record with its upload time parsed.
type Contract struct {
	ID         string
	Name       string
	Size       int64
	URL        string
	UploadedAt time.Time
}

type wireContract struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploaded_at"`
}

type wireError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to one gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New returns a client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches all contracts in the gateway's order (newest first).
func (c *Client) List(ctx context.Context) ([]Contract, error) {
	var wire []wireContract
	if err := c.do(ctx, http.MethodGet, contractsPath, nil, "", &wire); err != nil {
		return nil, err
	}

	out := make([]Contract, 0, len(wire))
	for _, w := range wire {
		ct, err := w.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, nil
}

// Get fetches one contract.
func (c *Client) Get(ctx context.Context, id string) (Contract, error) {
	var wire wireContract
	if err := c.do(ctx, http.MethodGet, contractsPath+"/"+url.PathEscape(id), nil, "", &wire); err != nil {
		return Contract{}, err
	}
	return wire.decode()
}

// Create uploads body as a new contract named name.
func (c *Client) Create(ctx context.Context, name, contentType string, body io.Reader) (Contract, error) {
	if contentType == "" {
		contentType = "application/zip"
	}
	path := contractsPath + "?" + url.Values{"filename": {name}}.Encode()

	var wire wireContract
	if err := c.do(ctx, http.MethodPost, path, body, contentType, &wire); err != nil {
		return Contract{}, err
	}
	return wire.decode()
}

// Delete removes the contract id whose blob lives at blobURL.
func (c *Client) Delete(ctx context.Context, id, blobURL string) error {
	payload, err := json.Marshal(map[string]string{"id": id, "url": blobURL})
	if err != nil {
		return err
	}

	var resp struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, http.MethodDelete, contractsPath, bytes.NewReader(payload), "application/json", &resp)
}

// Download streams the contract's bytes into w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+contractsPath+"/"+url.PathEscape(id)+"/download", nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download contract: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, decodeError(resp)
	}
	return io.Copy(w, resp.Body)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: DefaultErrorMessage}

	var body wireError
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Error != "" {
			apiErr.Message = body.Error
		}
		apiErr.Details = body.Details
	}
	return apiErr
}

func (w wireContract) decode() (Contract, error) {
	t, err := ParseTimestamp(w.UploadedAt)
	if err != nil {
		return Contract{}, err
	}
	return Contract{ID: w.ID, Name: w.Name, Size: w.Size, URL: w.URL, UploadedAt: t}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 wire timestamp. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported format", s)
}
