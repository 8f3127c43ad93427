// Package services holds typed HTTP clients for the medications,
// notifications and adherence collaborators.
package services

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

	"github.com/samber/oops"
)

const (
	// DefaultTimeout bounds a single collaborator call.
	DefaultTimeout = 5 * time.Second

	maxResponseSize = 1 << 20 // 1MB
)

// Outcome labels reported to an Observer.
const (
	OutcomeOK        = "ok"
	OutcomeHTTP      = "http_error"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
)

// Observer receives one notification per collaborator call.
type Observer interface {
	ObserveCall(service, outcome string, elapsed time.Duration)
}

// Error is a failed collaborator call. Message is human readable: the
// collaborator's own "message" field when it sent one, otherwise a synthesized
// description.
type Error struct {
	Service    string
	StatusCode int // 0 when no response was received
	Message    string
	cause      error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Option configures a client.
type Option func(*client)

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithObserver reports every call to o.
func WithObserver(o Observer) Option {
	return func(c *client) { c.observer = o }
}

type client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	observer   Observer
}

func newClient(service, baseURL string, opts ...Option) client {
	c := client{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// doJSON sends body (if non-nil) as JSON and decodes a 2xx response into out
// (if non-nil). token is forwarded as a bearer credential when non-empty.
func (c *client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		if c.observer != nil {
			c.observer.ObserveCall(c.service, outcome, time.Since(start))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s request: %w", c.service, err)
		}
		reader = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = OutcomeTransport
		msg := fmt.Sprintf("%s is unreachable", c.service)
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("%s did not respond within %s", c.service, c.timeout)
		}
		return &Error{
			Service: c.service,
			Message: msg,
			cause: oops.In("collaborator").
				With("service", c.service, "method", method, "url", url).
				Wrapf(err, "calling %s", c.service),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		outcome = OutcomeTransport
		return &Error{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("reading %s response failed", c.service),
			cause:      oops.In("collaborator").With("service", c.service, "url", url).Wrapf(err, "reading body"),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = OutcomeHTTP
		msg := bodyMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("%s returned status %d", c.service, resp.StatusCode)
		}
		return &Error{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    msg,
			cause: oops.In("collaborator").
				With("service", c.service, "method", method, "url", url, "status", resp.StatusCode).
				Errorf("%s", msg),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		outcome = OutcomeDecode
		return &Error{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s returned a malformed response", c.service),
			cause:      oops.In("collaborator").With("service", c.service, "url", url).Wrapf(err, "decoding response"),
		}
	}
	return nil
}

// bodyMessage extracts {"message": "..."} from an error body.
func bodyMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}
