package vultr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/quantserver/internal/metrics"
	"github.com/imamik/quantserver/internal/util/retry"
	"github.com/imamik/quantserver/pkg/cloud"
)

// DefaultBaseURL is the Vultr v2 API endpoint.
const DefaultBaseURL = "https://api.vultr.com/v2"

const providerName = "vultr"

var _ cloud.Provider = (*Client)(nil)

// Client talks to the Vultr API. It implements cloud.Provider.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	maxAttempts int
	backoff     retry.Backoff
	log         logr.Logger
	metrics     *metrics.Recorder
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint (useful for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetry sets the attempt budget for idempotent requests and the linear
// backoff base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.backoff = retry.Linear(baseDelay)
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxAttempts: 3,
		backoff:     retry.Linear(10 * time.Second),
		log:         logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements cloud.Provider.
func (c *Client) Name() string {
	return providerName
}

// idempotent reports whether a request may be repeated safely.
func idempotent(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch:
		return false
	default:
		return true
	}
}

func isSuccess(status int) bool {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return true
	default:
		return false
	}
}

// statusError is a retryable non-success response.
type statusError struct {
	StatusCode int
	Message    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Do sends one API call. body, when non-nil, is encoded as JSON. out, when
// non-nil, receives the decoded response; an empty response leaves it as is.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
	}

	attempts := c.maxAttempts
	if !idempotent(method) {
		attempts = 1
	}

	err := retry.Do(ctx, func(attempt int) error {
		return c.attempt(ctx, method, path, payload, out, attempt, attempts)
	}, retry.WithMaxAttempts(attempts), retry.WithBackoff(c.backoff),
		retry.WithOnRetry(func(attempt, maxAttempts int, _ error, wait time.Duration) {
			c.log.V(1).Info("Retrying request", "method", method, "path", path,
				"attempt", attempt, "max", maxAttempts, "wait", wait.String())
		}))
	if err == nil {
		return nil
	}

	var cerr *cloud.Error
	if errors.As(err, &cerr) {
		return cerr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if !retry.IsExhausted(err) {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.log.Error(err, "All attempts failed", "method", method, "path", path, "attempts", attempts)
	exhausted := &cloud.Error{Kind: cloud.KindExhausted, Op: op, Err: err}
	var serr *statusError
	if errors.As(err, &serr) {
		exhausted.StatusCode = serr.StatusCode
	}
	return exhausted
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any, attempt, attempts int) error {
	c.log.V(1).Info("API request", "method", method, "path", path, "attempt", attempt, "max", attempts)

	start := time.Now()
	status, respBody, err := c.send(ctx, method, path, payload)
	latency := time.Since(start)

	if err != nil {
		c.metrics.RecordAPIRequest(providerName, method, metrics.ResultNetworkError, latency)
		if ctx.Err() != nil {
			return retry.Fatal(ctx.Err())
		}
		c.log.Info("Attempt failed with network error", "attempt", attempt, "max", attempts,
			"method", method, "path", path, "error", err.Error())
		return fmt.Errorf("network error: %w", err)
	}

	switch {
	case isSuccess(status):
		c.metrics.RecordAPIRequest(providerName, method, metrics.ResultSuccess, latency)
		if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return retry.Fatal(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil

	case status >= 400 && status < 500:
		c.metrics.RecordAPIRequest(providerName, method, metrics.ResultClientError, latency)
		msg := errorMessage(status, respBody)
		c.log.Info("Client error", "status", status, "method", method, "path", path, "body", msg)
		return retry.Fatal(&cloud.Error{
			Kind:       cloud.KindClient,
			Op:         method + " " + path,
			StatusCode: status,
			Err:        errors.New(msg),
		})

	default:
		c.metrics.RecordAPIRequest(providerName, method, metrics.ResultServerError, latency)
		msg := errorMessage(status, respBody)
		c.log.Info("Attempt failed", "attempt", attempt, "max", attempts,
			"method", method, "path", path, "status", status, "body", msg)
		return &statusError{StatusCode: status, Message: msg}
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// errorMessage extracts the "error" field Vultr puts in failure bodies,
// falling back to the raw (truncated) body, then the status text.
func errorMessage(status int, body []byte) string {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(status)
	}
	const limit = 512
	if len(msg) > limit {
		msg = msg[:limit] + "..."
	}
	return msg
}
