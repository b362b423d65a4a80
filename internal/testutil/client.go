// Package testutil provides helpers for integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
)

// Client calls the API and checks every response against the OpenAPI document.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Validator  *OpenAPIValidator
}

// NewClient creates a client. A nil validator disables response checks.
func NewClient(baseURL string, validator *OpenAPIValidator) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Validator:  validator,
	}
}

// WithoutValidation returns a copy of the client with validation disabled.
// Use it for negative tests that send malformed requests.
func (c *Client) WithoutValidation() *Client {
	clone := *c
	clone.Validator = nil
	return &clone
}

// GET performs a GET request.
func (c *Client) GET(t *testing.T, path string) *http.Response {
	return c.Do(t, http.MethodGet, path, nil)
}

// POST performs a POST request with a JSON body.
func (c *Client) POST(t *testing.T, path string, body any) *http.Response {
	return c.Do(t, http.MethodPost, path, body)
}

// PUT performs a PUT request with a JSON body.
func (c *Client) PUT(t *testing.T, path string, body any) *http.Response {
	return c.Do(t, http.MethodPut, path, body)
}

// DELETE performs a DELETE request.
func (c *Client) DELETE(t *testing.T, path string) *http.Response {
	return c.Do(t, http.MethodDelete, path, nil)
}

// Do sends the request, failing the test on transport errors.
func (c *Client) Do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	if c.Validator != nil {
		// the original body was consumed by the transport
		validationReq, _ := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(bodyBytes))
		validationReq.Header = req.Header
		c.Validator.ValidateResponse(t, validationReq, resp)
	}

	return resp
}

// DecodeData decodes a {"data": ...} envelope into v and closes the body.
func DecodeData(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
}

// RequireStatus fails the test with the body when the status differs.
func RequireStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode == want {
		return
	}
	body := ReadBody(t, resp)
	t.Fatalf("unexpected status %d, want %d: %s", resp.StatusCode, want, body)
}

// ReadBody reads the response body and closes it.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

// Path formats an API path under /api/v1.
func Path(format string, args ...any) string {
	return "/api/v1" + fmt.Sprintf(format, args...)
}
