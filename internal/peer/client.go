// Package peer holds the HTTP clients one blog service uses to call another.
// Every call carries the shared service key and a request id, runs under
// its own timeout and is detached from the inbound request's cancellation.
package peer

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

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/auth"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/metrics"
)

// RequestIDHeader propagates the inbound request id to peers.
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout bounds a single peer call.
const DefaultTimeout = 3 * time.Second

// maxBodyBytes caps how much of a peer response is read.
const maxBodyBytes = 1 << 20

// StatusError reports a peer answer outside 2xx.
type StatusError struct {
	Peer    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s answered %d: %s", e.Peer, e.Status, e.Message)
	}
	return fmt.Sprintf("%s answered %d", e.Peer, e.Status)
}

// ErrUnsuccessful reports a 2xx answer whose envelope said success=false.
var ErrUnsuccessful = errors.New("peer reported failure")

// Options configure a Client.
type Options struct {
	// BaseURL is the peer's root, e.g. "http://auth:3000".
	BaseURL string

	// ServiceKey is sent in the service-key header.
	ServiceKey string

	// Timeout bounds each call. Zero uses DefaultTimeout.
	Timeout time.Duration

	// HTTPClient defaults to a client with a pooled transport.
	HTTPClient *http.Client

	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// Client is the transport shared by the typed peer clients.
type Client struct {
	name       string
	baseURL    string
	serviceKey string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Collector
}

func newClient(name string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		serviceKey: opts.ServiceKey,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     opts.Logger.With().Str("peer", name).Logger(),
		metrics:    opts.Metrics,
	}
}

// envelope is the shape every service answers with.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// call performs one request and decodes a successful envelope into out.
// headers may add to or override the default headers.
func (c *Client) call(ctx context.Context, operation, method, path string, body any, headers http.Header, out any) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	err := c.roundTrip(ctx, method, path, body, headers, out)

	event := c.logger.Debug()
	if err != nil {
		event = c.logger.Warn().Err(err)
	}
	event.
		Str("operation", operation).
		Str("method", method).
		Str("path", path).
		Dur("duration", time.Since(start)).
		Msg("peer call")

	c.metrics.RecordPeerCall(c.name, operation, transportFailure(err))
	return err
}

// transportFailure drops a 404, which is a definite answer from the peer
// rather than a failed call.
func transportFailure(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, headers http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.serviceKey != "" {
		req.Header.Set(auth.ServiceKeyHeader, c.serviceKey)
	}
	req.Header.Set(RequestIDHeader, requestID(ctx))
	for k, vs := range headers {
		req.Header[k] = vs
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Peer: c.name, Status: resp.StatusCode, Message: env.Message}
	}
	if env.Success != nil && !*env.Success {
		return fmt.Errorf("%w: %s", ErrUnsuccessful, env.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// requestID reuses the inbound request id when chi assigned one.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// IsStatus reports whether err is a StatusError with status.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}
