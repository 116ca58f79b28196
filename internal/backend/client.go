// Package backend is the typed REST client of the identity backend. Every
// page of the dashboard reads and mutates data exclusively through it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single backend round trip.
const DefaultTimeout = 30 * time.Second

// Client talks to the identity backend.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a client for baseURL. A trailing slash is dropped.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithToken returns a copy of c that authenticates as token. The HTTP client
// is shared.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

// Do sends a JSON request. A nil body sends no payload. The caller owns the
// response body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, query, contentType, reader)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*http.Response, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

// CheckError converts a non-2xx response into an error and closes its body.
// A 2xx response is left untouched.
func CheckError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &APIError{Status: resp.StatusCode, Detail: detailFromBody(body)}
}

// detailFromBody extracts the human-readable "detail" of an error payload.
// Validation errors carry a list of objects with a "msg" each.
func detailFromBody(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// ReadBody reads and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close() //nolint:errcheck
	return io.ReadAll(resp.Body)
}

// call runs one metered round trip and decodes a JSON answer into out.
func (c *Client) call(ctx context.Context, endpoint, method, path string, query url.Values, body, out any) (err error) {
	defer observe(endpoint, time.Now(), &err)

	resp, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if err = CheckError(resp); err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if out == nil {
		return nil
	}
	if err = decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func decodeJSON(r io.Reader, out any) error {
	err := json.NewDecoder(r).Decode(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Download is a streamed file answer. The caller closes Body.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

func (c *Client) download(ctx context.Context, endpoint, method, path string, body any, fallbackName string) (dl *Download, err error) {
	defer observe(endpoint, time.Now(), &err)

	resp, err := c.Do(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	if err = CheckError(resp); err != nil {
		return nil, err
	}
	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = fallbackName
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = XLSXContentType
	}
	return &Download{Body: resp.Body, Filename: name, ContentType: ct, Size: resp.ContentLength}, nil
}

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// filenameFromDisposition reads filename* (RFC 5987) or filename from a
// Content-Disposition header.
func filenameFromDisposition(h string) string {
	if h == "" {
		return ""
	}
	var plain string
	for _, part := range strings.Split(h, ";") {
		part = strings.TrimSpace(part)
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "filename*":
			v = strings.Trim(v, `"`)
			if _, enc, ok := strings.Cut(v, "''"); ok {
				if decoded, err := url.PathUnescape(enc); err == nil {
					return decoded
				}
			}
		case "filename":
			plain = strings.Trim(v, `"`)
		}
	}
	return plain
}

// IsUnauthorized reports whether err means the bearer token was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
