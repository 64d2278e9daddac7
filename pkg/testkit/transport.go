package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// RecordedRequest is one request seen by a RecordingTransport.
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// RecordingTransport is an http.RoundTripper that answers every request with
// a fixed status and keeps a copy of what was sent.
//
//	rt := testkit.NewRecordingTransport(http.StatusOK)
//	client := &http.Client{Transport: rt}
type RecordingTransport struct {
	mu       sync.Mutex
	status   int
	requests []RecordedRequest
}

func NewRecordingTransport(status int) *RecordingTransport {
	return &RecordingTransport{status: status}
}

func (rt *RecordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("testkit: read request body: %w", err)
		}
		_ = req.Body.Close()
	}

	rt.mu.Lock()
	rt.requests = append(rt.requests, RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	status := rt.status
	rt.mu.Unlock()

	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Request:    req,
	}, nil
}

// Requests returns what has been sent so far.
func (rt *RecordingTransport) Requests() []RecordedRequest {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]RecordedRequest(nil), rt.requests...)
}

// Matching returns the recorded requests whose URL starts with prefix.
func (rt *RecordingTransport) Matching(prefix string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range rt.Requests() {
		if strings.HasPrefix(r.URL, prefix) {
			out = append(out, r)
		}
	}
	return out
}
