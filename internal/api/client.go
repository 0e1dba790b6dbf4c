// ABOUTME: HTTP client for the conversation portal REST API
// ABOUTME: Stateless request/response façade; failures normalize to RemoteError

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned (wrapped in a *RemoteError) when the requested
// conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// RemoteError is the single error shape for all backend and transport
// failures. Message carries the backend's "error" field when present,
// otherwise a transport-level description. StatusCode is zero for
// failures that never produced an HTTP response.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Is makes a 404 RemoteError satisfy errors.Is(err, ErrNotFound).
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the conversation portal API. It holds no conversation
// state; safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Pass nil for the default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With("component", "api")
		}
	}
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. "http://localhost:8000/api").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetConversation fetches a single conversation with its full message history.
func (c *Client) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conversations/%d/", id), nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations fetches the conversation list with optional filters.
func (c *Client) ListConversations(ctx context.Context, params ListParams) ([]ConversationSummary, error) {
	q := url.Values{}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.DateFrom != "" {
		q.Set("date_from", params.DateFrom)
	}
	if params.DateTo != "" {
		q.Set("date_to", params.DateTo)
	}
	path := "/conversations/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list []ConversationSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateConversation creates a new conversation and returns its bound id.
func (c *Client) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	body := map[string]string{"title": title}
	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations/", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage posts user content and returns the confirmed user/assistant
// message pair. The backend rejects sends to ended conversations.
func (c *Client) SendMessage(ctx context.Context, id int64, content string) (*SendMessageResponse, error) {
	body := map[string]string{"content": content}
	var resp SendMessageResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%d/send_message/", id), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EndConversation transitions the conversation to its terminal ended state.
// The returned conversation carries the backend-generated summary fields.
func (c *Client) EndConversation(ctx context.Context, id int64) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%d/end_conversation/", id), map[string]string{}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// UpdateTitle renames a conversation.
func (c *Client) UpdateTitle(ctx context.Context, id int64, title string) (*Conversation, error) {
	body := map[string]string{"title": title}
	var conv Conversation
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/conversations/%d/", id), body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation permanently removes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/conversations/%d/", id), nil, nil)
}

// QueryConversations asks a natural-language question over past conversations.
func (c *Client) QueryConversations(ctx context.Context, query string) (*QueryResult, error) {
	body := map[string]string{"query": query}
	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/conversations/query_conversations/", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Analytics fetches aggregate conversation statistics.
func (c *Client) Analytics(ctx context.Context) (*AnalyticsSummary, error) {
	var summary AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/conversations/analytics/", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// do performs one round trip: marshal body, send, normalize errors,
// decode the response into out (which may be nil for empty responses).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Message: fmt.Sprintf("encoding request: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &RemoteError{Message: fmt.Sprintf("building request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Message: err.Error()}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	c.logger.Debug("request complete",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decoding response: %v", err),
		}
	}
	return nil
}

// errorMessage extracts the backend's "error" field, falling back to the
// HTTP status text when the body is not the expected JSON shape.
func errorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(resp.StatusCode)
}
