// Package tools implements the researcher's tools as eino InvokableTools.
//
// Each tool is a single upstream HTTP call (Tavily, Jina reader, Serper) whose
// JSON answer is normalized and handed back to the model as a string.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultTimeout = 20 * time.Second
	// maxErrorBody caps how much of an upstream error body is kept in errors.
	maxErrorBody = 512
)

var validate = validator.New()

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("tools: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Option customizes a tool's transport.
type Option func(*transport)

// WithEndpoint overrides the upstream URL, mainly for tests.
func WithEndpoint(endpoint string) Option {
	return func(t *transport) {
		t.endpoint = strings.TrimSpace(endpoint)
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *transport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(t *transport) {
		if timeout > 0 {
			t.client = &http.Client{Timeout: timeout}
		}
	}
}

type transport struct {
	endpoint string
	client   *http.Client
}

func newTransport(endpoint string, opts []Option) transport {
	t := transport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// do sends req and returns the body of a 2xx response.
func (t transport) do(req *http.Request) ([]byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tools: request %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tools: read response from %s: %w", req.URL.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted(), Body: snippet}
	}
	return body, nil
}

func (t transport) postJSON(ctx context.Context, url string, payload any, header http.Header) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tools: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tools: build request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req)
}

// decodeArgs unmarshals and validates the model supplied arguments.
func decodeArgs(argumentsInJSON string, v any) error {
	if strings.TrimSpace(argumentsInJSON) == "" {
		argumentsInJSON = "{}"
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func encodeResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("tools: encode result: %w", err)
	}
	return string(data), nil
}
