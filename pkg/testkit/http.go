package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Response is a recorded handler response.
type Response struct {
	Code   int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into dest and fails the test on error.
func (r *Response) Decode(t *testing.T, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, dest), "body: %s", r.Body)
}

// Map decodes the body as a JSON object.
func (r *Response) Map(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	r.Decode(t, &out)
	return out
}

// Client drives an http.Handler in process. Cookies set by one response are
// sent with the next request, so a sequence of calls shares one session.
type Client struct {
	handler http.Handler
	cookies map[string]*http.Cookie
	token   string
}

func NewClient(h http.Handler) *Client {
	return &Client{handler: h, cookies: map[string]*http.Cookie{}}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// Do sends body as JSON when it is not nil; a string or []byte body is sent
// as is.
func (c *Client) Do(t *testing.T, method, path string, body any) *Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.Send(t, req)
}

// Send runs a prepared request, adding the stored cookies and token.
func (c *Client) Send(t *testing.T, req *http.Request) *Response {
	t.Helper()

	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	for _, ck := range res.Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return &Response{Code: rec.Code, Header: rec.Header(), Body: rec.Body.Bytes()}
}

func (c *Client) Get(t *testing.T, path string) *Response {
	t.Helper()
	return c.Do(t, http.MethodGet, path, nil)
}

func (c *Client) Post(t *testing.T, path string, body any) *Response {
	t.Helper()
	return c.Do(t, http.MethodPost, path, body)
}
