package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client talks to the profile REST service on behalf of one user.
type Client struct {
	baseURL    string
	userID     uuid.UUID
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for baseURL acting as userID.
func NewClient(baseURL string, userID uuid.UUID, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listResponse is the envelope returned by list endpoints.
type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Resource is the HTTP implementation of Service for one collection, e.g.
// "skills" or "experiences".
type Resource[T any] struct {
	client     *Client
	collection string
}

// NewResource binds a collection path to the client.
func NewResource[T any](c *Client, collection string) *Resource[T] {
	return &Resource[T]{client: c, collection: collection}
}

var _ Service[struct{}] = (*Resource[struct{}])(nil)

// Create posts v to /users/{id}/{collection}.
func (r *Resource[T]) Create(ctx context.Context, v T) (T, error) {
	var out T
	err := r.client.do(ctx, http.MethodPost, r.userPath(), v, &out)
	if err != nil {
		return out, r.wrap(OpCreate, err)
	}
	return out, nil
}

// Update puts v to /{collection}/{id}.
func (r *Resource[T]) Update(ctx context.Context, id string, v T) (T, error) {
	var out T
	err := r.client.do(ctx, http.MethodPut, r.itemPath(id), v, &out)
	if err != nil {
		return out, r.wrap(OpUpdate, err)
	}
	return out, nil
}

// Delete removes /{collection}/{id}.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if err := r.client.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil); err != nil {
		return r.wrap(OpDelete, err)
	}
	return nil
}

// List fetches every entry of the collection for the user.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var out listResponse[T]
	if err := r.client.do(ctx, http.MethodGet, r.userPath(), nil, &out); err != nil {
		return nil, r.wrap(OpList, err)
	}
	return out.Items, nil
}

func (r *Resource[T]) userPath() string {
	return fmt.Sprintf("/users/%s/%s", r.client.userID, r.collection)
}

func (r *Resource[T]) itemPath(id string) string {
	return fmt.Sprintf("/%s/%s", r.collection, url.PathEscape(id))
}

func (r *Resource[T]) wrap(op Op, err error) error {
	me := AsMutationError(op, r.collection, err)
	var se *statusError
	if errors.As(err, &se) {
		me.StatusCode = se.code
	}
	return me
}

type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return http.StatusText(e.code)
	}
	return e.message
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("remote request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return &statusError{code: resp.StatusCode, message: er.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
