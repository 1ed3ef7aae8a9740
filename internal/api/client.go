// Package api implements the request/response layer of the scan-API
// protocol: one Client per server endpoint, one Send per HTTP exchange.
//
// Send performs no retries and recovers from nothing: a transport error,
// an undecodable body (DecodeError) or a server rejection (RequestError)
// is returned to the caller as is. Every decoded body is logged before
// the success evaluation, so failures are diagnosable from the log trail
// alone.
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

	"github.com/google/uuid"

	"github.com/allbugisi/scanapi/internal/log"
)

// Client talks to a single scan-API server.
type Client struct {
	baseURL *url.URL
	httpc   *http.Client
}

// NewClient parses and validates the server base URL. The URL must be
// absolute and carry no path, e.g. `http://127.0.0.1:8775`.
func NewClient(serverURL string) (*Client, error) {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")

	if parsedURL.Scheme == "" || parsedURL.Host == "" || parsedURL.Path != "" {
		return nil, errors.New("please define the server url with a scheme and without path, e.g. `http://127.0.0.1:8775`")
	}

	return &Client{
		baseURL: parsedURL,
		httpc:   &http.Client{},
	}, nil
}

// WithHTTPClient overrides the underlying transport. Timeouts and TLS
// settings belong there, not to this layer.
func (c *Client) WithHTTPClient(httpc *http.Client) *Client {
	c.httpc = httpc
	return c
}

// BaseURL returns the server base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Send issues one request against the server and normalizes the outcome.
// method is one of GET/POST/PUT/PATCH/DELETE, path is relative to the
// server base URL (e.g. "/task/new") and body, when non-nil, is
// marshalled as the JSON request payload.
//
// The decoded body is returned unchanged unless it carries
// { "success": false }, which yields a *RequestError.
func (c *Client) Send(ctx context.Context, method, path string, body any) (Envelope, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, fmt.Errorf("method %q is not supported", method)
	}

	requestURL := c.baseURL.JoinPath(path).String()
	ctx = log.ContextAttrs(ctx,
		slog.String("url", requestURL),
		slog.String("request_id", uuid.NewString()),
	)

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, payload)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{URL: requestURL, Err: err}
	}
	slog.DebugContext(ctx, "scan-api response", "body", env)

	success, ok := env["success"]
	if !ok {
		// the response has no status management
		return env, nil
	}
	if b, isBool := success.(bool); isBool && !b {
		slog.ErrorContext(ctx, "scan-api reported failure")
		return nil, &RequestError{URL: requestURL}
	}
	return env, nil
}
