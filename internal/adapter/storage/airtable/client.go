package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Airtable REST API for a single base.
type Client struct {
	httpClient HTTPClient
	baseURL    string
	apiKey     string
	baseID     string
	log        zerolog.Logger
}

// NewClient creates a client for baseID. baseURL is normally
// https://api.airtable.com/v0.
func NewClient(httpClient HTTPClient, baseURL, apiKey, baseID string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		baseID:     baseID,
		log:        log,
	}
}

type createRequest struct {
	Fields map[string]any `json:"fields"`
}

type createResponse struct {
	ID string `json:"id"`
}

// APIError is a non-2xx answer from Airtable. Type is the Airtable error
// type, e.g. INVALID_PERMISSIONS or NOT_FOUND.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return e.Type
}

// CreateRecord inserts one row into table and returns its record id.
func (c *Client) CreateRecord(ctx context.Context, table string, fields map[string]any) (string, error) {
	payload, err := json.Marshal(createRequest{Fields: fields})
	if err != nil {
		return "", fmt.Errorf("encoding airtable fields: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building airtable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("airtable request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading airtable response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseError(resp.StatusCode, body)
		c.log.Debug().Int("status", resp.StatusCode).Str("type", apiErr.Type).Msg("airtable rejected record")
		return "", apiErr
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decoding airtable response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("airtable response has no record id")
	}
	return created.ID, nil
}

// parseError accepts both {"error":"NOT_FOUND"} and
// {"error":{"type":"...","message":"..."}}.
func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Type: http.StatusText(status)}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var kind string
	if err := json.Unmarshal(envelope.Error, &kind); err == nil {
		apiErr.Type = kind
		return apiErr
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Type != "" {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
	}
	return apiErr
}
