// Package http is a small fluent client for outgoing calls such as the
// kitchen webhook. Transport errors and 5xx responses are retried with
// exponential backoff; 4xx responses are returned as is.
//
//	res, err := client.Post(url).
//	    Header("X-Event", "order.status_changed").
//	    Body(payload).
//	    Retry(3, 200*time.Millisecond).
//	    Send(ctx)
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/cherrydine/cherrydine/pkg/logger"
)

var defaultTransport = &gohttp.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

type Client struct {
	hc *gohttp.Client
}

// New wraps hc; nil uses a pooled client with a 10s timeout.
func New(hc *gohttp.Client) *Client {
	if hc == nil {
		hc = &gohttp.Client{Transport: defaultTransport, Timeout: 10 * time.Second}
	}
	return &Client{hc: hc}
}

type Request struct {
	client    *Client
	method    string
	url       string
	headers   map[string]string
	body      any
	attempts  int
	retryWait time.Duration
}

func (c *Client) Get(url string) *Request  { return c.newRequest(gohttp.MethodGet, url) }
func (c *Client) Post(url string) *Request { return c.newRequest(gohttp.MethodPost, url) }

func (c *Client) newRequest(method, url string) *Request {
	return &Request{
		client:    c,
		method:    method,
		url:       url,
		headers:   map[string]string{"Accept": "application/json"},
		attempts:  1,
		retryWait: 500 * time.Millisecond,
	}
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

func (r *Request) Headers(h map[string]string) *Request {
	for k, v := range h {
		r.headers[k] = v
	}
	return r
}

// Body sets the payload. Strings and byte slices are sent raw; anything else
// is JSON encoded.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

// Retry sets the total number of attempts and the first backoff, which
// doubles after every failed attempt.
func (r *Request) Retry(attempts int, wait time.Duration) *Request {
	if attempts < 1 {
		attempts = 1
	}
	r.attempts = attempts
	r.retryWait = wait
	return r
}

// Send runs the request. A 5xx after the last attempt is returned as a
// Response, not an error.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	payload, contentType, err := r.encode()
	if err != nil {
		return nil, err
	}

	var (
		res     *Response
		lastErr error
	)
	wait := r.retryWait
	for attempt := 1; attempt <= r.attempts; attempt++ {
		res, lastErr = r.do(ctx, payload, contentType)
		if lastErr == nil && res.StatusCode < 500 {
			return res, nil
		}
		if attempt == r.attempts {
			break
		}

		reason := lastErr
		if reason == nil {
			reason = fmt.Errorf("status %d", res.StatusCode)
		}
		logger.WithCtx(ctx).Warn("http: attempt failed, retrying",
			"method", r.method, "url", r.url, "attempt", attempt, "backoff", wait, "error", reason)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
	if lastErr != nil {
		return nil, fmt.Errorf("http: %s %s failed after %d attempts: %w", r.method, r.url, r.attempts, lastErr)
	}
	return res, nil
}

func (r *Request) encode() ([]byte, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(v), "text/plain", nil
	case []byte:
		return v, "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return b, "application/json", nil
	}
}

func (r *Request) do(ctx context.Context, payload []byte, contentType string) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

func (r *Response) JSON(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}
