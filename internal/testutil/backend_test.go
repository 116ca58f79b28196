package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_RecordsAndAnswers(t *testing.T) {
	b := NewBackend(t)
	b.JSON("/api/stats", http.StatusOK, map[string]int{"mfa_rows": 3})
	b.JSON("/api/raw", http.StatusAccepted, `{"ok":true}`)
	b.Handle("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	})

	resp, err := http.Get(b.URL() + "/api/stats?x=1")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"mfa_rows":3}`, string(body))

	resp, err = http.Get(b.URL() + "/api/raw")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(body))

	resp, err = http.Post(b.URL()+"/api/echo", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "hello", string(body))

	resp, err = http.Get(b.URL() + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, []string{"GET /api/stats", "GET /api/raw", "POST /api/echo", "GET /missing"}, b.Calls())
	assert.Equal(t, 1, b.Count("/api/stats"))
	assert.Equal(t, "x=1", b.Requests()[0].Query)
	assert.Equal(t, "hello", b.Requests()[2].Body)
	assert.Equal(t, "/missing", b.Last().Path)
}
