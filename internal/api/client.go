package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"abricot/pkg/logger"
	"abricot/pkg/metrics"
	"abricot/pkg/trace"

	"go.uber.org/zap"
)

// DefaultErrorMessage is shown when the backend gives no message or cannot be reached.
const DefaultErrorMessage = "Une erreur est survenue"

// TokenSource yields the persisted auth token. It is read on every call so a
// login or logout in another process is picked up immediately.
type TokenSource interface {
	Load() (string, error)
}

// Client is the only network boundary of the runtime. A failed call fails
// once: no retries, no circuit breaking, no timeout beyond ctx.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestError is the single error type of the client. Status is 0 for
// transport failures; Message is what the end user is shown.
type RequestError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// IsUnauthorized reports a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do performs one exchange. body is JSON encoded when non-nil; on success the
// envelope's data (then data[key] when key is set and present) is decoded into out.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body any, key string, out any) error {
	start := time.Now()
	log := logger.WithTrace(ctx, c.logger).With(zap.String("endpoint", endpoint))

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}
	if c.tokens != nil {
		token, err := c.tokens.Load()
		if err != nil {
			log.Warn("Failed to read auth token, sending anonymous request", zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequestDuration(endpoint, "error", time.Since(start))
		log.Warn("Backend unreachable", zap.Error(err))
		return &RequestError{Endpoint: endpoint, Message: DefaultErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	metrics.RecordAPIRequestDuration(endpoint, status, time.Since(start))
	if err != nil {
		log.Warn("Failed to read response", zap.Int("status_code", resp.StatusCode), zap.Error(err))
		return &RequestError{Endpoint: endpoint, Status: resp.StatusCode, Message: DefaultErrorMessage, Err: err}
	}

	var env envelope
	decodeErr := errEmptyBody
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := DefaultErrorMessage
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		log.Warn("Backend returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", msg),
		)
		return &RequestError{Endpoint: endpoint, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		log.Debug("Backend call succeeded", zap.Int("status_code", resp.StatusCode), zap.Duration("duration", time.Since(start)))
		return nil
	}
	if decodeErr != nil {
		log.Warn("Failed to decode response envelope", zap.Error(decodeErr))
		return &RequestError{Endpoint: endpoint, Status: resp.StatusCode, Message: DefaultErrorMessage, Err: decodeErr}
	}
	if err := unwrap(env.Data, key, out); err != nil {
		log.Warn("Failed to decode response data", zap.Error(err))
		return &RequestError{Endpoint: endpoint, Status: resp.StatusCode, Message: DefaultErrorMessage, Err: err}
	}

	log.Debug("Backend call succeeded", zap.Int("status_code", resp.StatusCode), zap.Duration("duration", time.Since(start)))
	return nil
}

var errEmptyBody = errors.New("empty response body")

// unwrap decodes data[key] when data is an object holding key, data otherwise.
func unwrap(data json.RawMessage, key string, out any) error {
	if len(data) == 0 {
		return nil
	}
	if key != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err == nil {
			if v, ok := obj[key]; ok {
				return json.Unmarshal(v, out)
			}
		}
	}
	return json.Unmarshal(data, out)
}
