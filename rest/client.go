// Package rest is a client for the storefront REST backend.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 10 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client talks to the storefront backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tracer     trace.Tracer
}

// NewClient creates a client for the backend rooted at baseURL,
// e.g. "http://localhost:3000".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		tracer:     otel.Tracer("storefrontx-rest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the status part shared by every backend response.
// A missing result field is treated as success.
type envelope struct {
	Result *bool  `json:"result"`
	Error  string `json:"error"`
}

// do sends one request and decodes the response into out. Exactly one of
// the following holds on return: out is filled and err is nil, or err
// matches ErrTransport, ErrDecode, ErrTimeout, ErrCanceled or ErrRejected.
func (c *Client) do(ctx context.Context, method, route, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "storefront."+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		),
	)
	defer span.End()

	err := c.roundTrip(ctx, method, path, body, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, route+" failed")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err, method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err, method, path)
	}

	var env envelope
	envErr := json.Unmarshal(raw, &env)
	if envErr == nil && env.Result != nil && !*env.Result {
		return &storefrontx.RejectedError{Message: env.Error}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.WithSecondaryError(storefrontx.ErrTransport,
			errors.Newf("%s %s: unexpected status %d", method, path, resp.StatusCode))
	}

	if envErr != nil {
		return errors.WithSecondaryError(storefrontx.ErrDecode,
			errors.Wrapf(envErr, "%s %s", method, path))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.WithSecondaryError(storefrontx.ErrDecode,
			errors.Wrapf(err, "%s %s", method, path))
	}
	return nil
}

func transportError(err error, method, path string) error {
	cause := errors.Wrapf(err, "%s %s", method, path)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errors.WithSecondaryError(storefrontx.ErrTimeout, cause)
	case errors.Is(err, context.Canceled):
		return errors.WithSecondaryError(storefrontx.ErrCanceled, cause)
	default:
		return errors.WithSecondaryError(storefrontx.ErrTransport, cause)
	}
}

// pathf formats a route with each segment path-escaped.
func pathf(format string, segments ...string) string {
	args := make([]any, len(segments))
	for i, s := range segments {
		args[i] = url.PathEscape(s)
	}
	return fmt.Sprintf(format, args...)
}
