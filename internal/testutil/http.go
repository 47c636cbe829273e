// Package testutil provides small HTTP client helpers shared by
// integration tests that drive the proxy or control plane through a real
// httptest.Server rather than calling handlers directly.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient wraps http.Client with convenience methods for testing
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a new HTTP client for testing
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(path string) (*http.Response, error) {
	url := c.baseURL + path
	return c.client.Get(url)
}

// Post performs a POST request
func (c *HTTPClient) Post(path string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + path
	return c.client.Post(url, "application/json", body)
}

// PostJSON performs a POST request with JSON data
func (c *HTTPClient) PostJSON(path string, data interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return c.Post(path, strings.NewReader(string(jsonData)))
}

// GetJSON performs a GET request and parses JSON response
func (c *HTTPClient) GetJSON(path string, result interface{}) error {
	resp, err := c.Get(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// PostJSONExpectStatus performs a POST request and checks the status code
func (c *HTTPClient) PostJSONExpectStatus(path string, data interface{}, expectedStatus int) (*http.Response, error) {
	resp, err := c.PostJSON(path, data)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != expectedStatus {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp, fmt.Errorf("expected status %d, got %d: %s", expectedStatus, resp.StatusCode, string(body))
	}

	return resp, nil
}

// ParseJSONResponse parses a JSON response into the given interface
func ParseJSONResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(result)
}

// ParseJSONToString converts an interface to a JSON string
func ParseJSONToString(data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// ReadResponseBody reads the entire response body as a string
func ReadResponseBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// CheckJSONResponse checks if a response contains valid JSON
func CheckJSONResponse(resp *http.Response) error {
	defer resp.Body.Close()

	var result interface{}
	err := json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return fmt.Errorf("invalid JSON response: %w", err)
	}

	return nil
}

// errorResponse mirrors the control plane's {"error": "..."} envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// ParseErrorResponse decodes a control-plane error body.
func ParseErrorResponse(resp *http.Response) (string, error) {
	var result errorResponse
	if err := ParseJSONResponse(resp, &result); err != nil {
		return "", err
	}
	return result.Error, nil
}
