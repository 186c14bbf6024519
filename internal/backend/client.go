package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBaseURL = "https://discovery-call-backend-latest-1.onrender.com/api"

	maxResponseSize = 10 << 20 // 10MB
)

// Client talks to the discovery-call backend. Every call issues exactly one
// HTTP request: no retries, no de-duplication, and no client-side timeout
// beyond what the caller's context imposes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: 0})
}

// NewWithHTTPClient creates a client using hc for transport (for testing).
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// envelope is the response wrapper every backend endpoint uses.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error"`
}

// reply is an unwrapped 2xx response.
type reply struct {
	header http.Header
	data   json.RawMessage
}

// Call issues method against endpoint and returns the unwrapped envelope
// data. The Authorization header is attached only when token is non-empty.
// A nil result with a nil error is an empty success.
func (c *Client) Call(ctx context.Context, method, endpoint, token string, body any) (json.RawMessage, error) {
	r, err := c.do(ctx, method, endpoint, token, body)
	if err != nil {
		return nil, err
	}
	return r.data, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body any) (reply, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return reply{}, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return reply{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("backend request failed", "method", method, "endpoint", endpoint, "request_id", reqID, "error", err)
		return reply{}, &NetworkError{Endpoint: endpoint, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return reply{}, &NetworkError{Endpoint: endpoint, Cause: fmt.Errorf("reading response: %w", err)}
	}

	slog.Debug("backend request",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("backend returned error status", "endpoint", endpoint, "status", resp.StatusCode, "request_id", reqID)
		return reply{}, &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(raw)}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return reply{header: resp.Header}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return reply{}, &ShapeError{Endpoint: endpoint, Reason: fmt.Sprintf("invalid envelope: %v", err)}
	}
	if msg, ok := errorText(env.Error); ok {
		return reply{}, &ApplicationError{Endpoint: endpoint, Message: msg}
	}
	if isNull(env.Data) {
		return reply{header: resp.Header}, nil
	}
	return reply{header: resp.Header, data: env.Data}, nil
}

// errorText extracts a message from an envelope error field, which may be a
// string or an object carrying a message.
func errorText(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	if b, ok := boolValue(raw); ok && !b {
		return "", false
	}
	if emptyValue(raw) {
		return "", false
	}
	return "", true
}

// emptyValue reports whether raw is {}, [] or a zero number.
func emptyValue(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return len(obj) == 0
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return len(arr) == 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n == 0
	}
	return false
}

func boolValue(raw json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
