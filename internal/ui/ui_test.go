package ui

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"idrecon/internal/backend"
	"idrecon/internal/prefs"
	"idrecon/internal/session"
	"idrecon/internal/testutil"
)

func newFakeBackend(t *testing.T, authConfigured bool) *testutil.Backend {
	t.Helper()
	fb := testutil.NewBackend(t)
	fb.JSON("/api/auth/status", http.StatusOK, backend.AuthStatus{Configured: authConfigured})
	return fb
}

// testUI serves the dashboard the way the server mounts it.
type testUI struct {
	srv    *httptest.Server
	client *http.Client
}

func newTestUI(t *testing.T, fb *testutil.Backend) *testUI {
	t.Helper()
	store := session.NewStore(0)
	h := NewHandler(backend.NewClient(fb.URL(), ""), store, slog.New(slog.NewTextHandler(io.Discard, nil)), false, 2)

	r := chi.NewRouter()
	r.Use(session.Middleware(store, false))
	r.Route("/ui", func(r chi.Router) { MountRoutes(r, h) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testUI{
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (u *testUI) setCookie(t *testing.T, name, value string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, u.srv.URL+"/ui", nil)
	require.NoError(t, err)
	u.client.Jar.SetCookies(req.URL, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

func (u *testUI) login(t *testing.T, token string) {
	u.setCookie(t, prefs.CookieName(prefs.KeyBearer), token)
}

type response struct {
	Status int
	Header http.Header
	Body   string
}

func (u *testUI) do(t *testing.T, method, path string, fragment bool, form string) response {
	t.Helper()
	var body io.Reader
	if form != "" {
		body = strings.NewReader(form)
	}
	req, err := http.NewRequest(method, u.srv.URL+path, body)
	require.NoError(t, err)
	if form != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if fragment {
		req.Header.Set("Datastar-Request", "true")
	}
	if method == http.MethodPost {
		u.setCookie(t, csrfCookieName, "test-csrf")
		req.Header.Set(csrfHeaderName, "test-csrf")
	}
	resp, err := u.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{Status: resp.StatusCode, Header: resp.Header, Body: string(raw)}
}

func (u *testUI) get(t *testing.T, path string) response {
	return u.do(t, http.MethodGet, path, false, "")
}

func (u *testUI) fragment(t *testing.T, path string) response {
	return u.do(t, http.MethodGet, path, true, "")
}

func consolidatedRows() backend.RowSet {
	return backend.RowSet{Rows: []backend.Record{
		{"source": "AD", "login": "sidorov", "domain": "AD Москва", "uz_active": "Да"},
		{"source": "AD", "login": "ivanov", "domain": "AD Ижевск", "uz_active": "Нет"},
		{"source": "MFA", "login": "petrov", "domain": "AD Москва", "uz_active": "Да"},
	}, Total: 3}
}

// before reports whether a occurs in s before b.
func before(s, a, b string) bool {
	i, j := strings.Index(s, a), strings.Index(s, b)
	return i >= 0 && j >= 0 && i < j
}

// tbody returns the part of a rendered grid after the table head.
func tbody(s string) string {
	if i := strings.Index(s, "<tbody"); i >= 0 {
		return s[i:]
	}
	return ""
}
