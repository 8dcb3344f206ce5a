// Package network is the HTTP client agents and the console use to talk to
// the relay. Every call takes a context and is additionally bounded by one
// of three per-call timeouts.
package network

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

	"github.com/pkg/errors"
)

const (
	DefaultControlTimeout = 800 * time.Millisecond
	DefaultNormalTimeout  = 5 * time.Second
	DefaultBulkTimeout    = 120 * time.Second
)

// Timeouts bound single calls. Control covers the sub-second pointer and
// keyboard polls, Bulk covers file transfers, Normal everything else.
type Timeouts struct {
	Control time.Duration
	Normal  time.Duration
	Bulk    time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{Control: DefaultControlTimeout, Normal: DefaultNormalTimeout, Bulk: DefaultBulkTimeout}
}

// APIError is a non-2xx answer from the relay.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

type Client struct {
	base     *url.URL
	http     *http.Client
	timeouts Timeouts
	deviceID string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTimeouts(t Timeouts) Option {
	return func(c *Client) {
		d := DefaultTimeouts()
		if t.Control <= 0 {
			t.Control = d.Control
		}
		if t.Normal <= 0 {
			t.Normal = d.Normal
		}
		if t.Bulk <= 0 {
			t.Bulk = d.Bulk
		}
		c.timeouts = t
	}
}

// WithDeviceID makes the client identify itself when polling commands.
func WithDeviceID(id string) Option { return func(c *Client) { c.deviceID = id } }

// New returns a client for the relay at baseURL ("http://host:5000"). A
// bare "host:port" is accepted as well.
func New(baseURL string, opts ...Option) (*Client, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse relay url %q", baseURL)
	}
	if u.Host == "" {
		return nil, errors.Errorf("relay url %q has no host", baseURL)
	}
	c := &Client{base: u, http: &http.Client{}, timeouts: DefaultTimeouts()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) DeviceID() string { return c.deviceID }

func (c *Client) Timeouts() Timeouts { return c.timeouts }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends the request and returns the response when the status is 2xx.
// The caller closes the body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	apiErr := &APIError{Method: req.Method, Path: req.URL.Path, StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return nil, apiErr
}

// call performs a JSON round trip bounded by timeout. in and out may be nil.
func (c *Client) call(ctx context.Context, timeout time.Duration, method, path string, query url.Values, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "encode %s %s", method, path)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}
