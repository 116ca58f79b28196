// Package testutil provides a scripted reconciliation backend for tests
// across the codebase.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Request is one request received by a Backend.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// Backend is an httptest server answering registered paths. Unregistered
// paths answer 404. Every request is recorded.
type Backend struct {
	mux *http.ServeMux
	srv *httptest.Server

	mu       sync.Mutex
	requests []Request
}

// NewBackend starts a backend that is closed with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{mux: http.NewServeMux()}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the base URL of the backend.
func (b *Backend) URL() string { return b.srv.URL }

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	b.mu.Unlock()
	r.Body = io.NopCloser(bytes.NewReader(body))
	b.mux.ServeHTTP(w, r)
}

// Handle registers fn for pattern.
func (b *Backend) Handle(pattern string, fn http.HandlerFunc) {
	b.mux.HandleFunc(pattern, fn)
}

// JSON answers pattern with status and body encoded as JSON. A string or
// []byte body is written verbatim.
func (b *Backend) JSON(pattern string, status int, body any) {
	b.Handle(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		switch v := body.(type) {
		case string:
			_, _ = io.WriteString(w, v)
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(v)
		}
	})
}

// Requests returns the recorded requests in arrival order.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Last returns the most recent request, or a zero Request.
func (b *Backend) Last() Request {
	reqs := b.Requests()
	if len(reqs) == 0 {
		return Request{}
	}
	return reqs[len(reqs)-1]
}

// Calls returns "METHOD /path" for every recorded request.
func (b *Backend) Calls() []string {
	reqs := b.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method + " " + r.Path
	}
	return out
}

// Count returns how many requests hit path.
func (b *Backend) Count(path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}
