package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
	"idrecon/internal/middleware"
	"idrecon/internal/prefs"
	"idrecon/internal/session"
	"idrecon/internal/table"

	gomponents "maragu.dev/gomponents"
)

// How long the backend's auth mode is cached, after an answer and after a
// failed request.
const (
	authStatusTTL  = time.Minute
	authFailureTTL = 5 * time.Second
)

// Handler serves the dashboard pages and fragments.
type Handler struct {
	Backend       *backend.Client
	Sessions      *session.Store
	Logger        *slog.Logger
	SecureCookies bool
	ChunkSize     int

	authMu      sync.Mutex
	authExpires time.Time
	authEnabled bool
	authFlight  singleflight.Group
}

func NewHandler(client *backend.Client, sessions *session.Store, logger *slog.Logger, secureCookies bool, chunkSize int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = table.DefaultChunkSize
	}
	return &Handler{
		Backend:       client,
		Sessions:      sessions,
		Logger:        logger,
		SecureCookies: secureCookies,
		ChunkSize:     chunkSize,
	}
}

// prefs binds the preference store to one request.
func (h *Handler) prefs(w http.ResponseWriter, r *http.Request) *prefs.CookieStore {
	return prefs.NewCookieStore(w, r, h.SecureCookies)
}

// client returns the backend client carrying the request's bearer token.
func (h *Handler) client(r *http.Request) *backend.Client {
	return h.Backend.WithToken(BearerToken(r))
}

// BearerToken reads the stored backend token of a request.
func BearerToken(r *http.Request) string {
	c, err := r.Cookie(prefs.CookieName(prefs.KeyBearer))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func (h *Handler) log(ctx context.Context) *slog.Logger {
	return middleware.Logger(ctx, h.Logger)
}

// authRequired reports whether the backend enforces authentication. The
// answer is cached; an unreachable backend counts as enforcing and is asked
// again after a short pause. Concurrent callers share one status request.
func (h *Handler) authRequired(ctx context.Context) bool {
	h.authMu.Lock()
	if time.Now().Before(h.authExpires) {
		enabled := h.authEnabled
		h.authMu.Unlock()
		return enabled
	}
	h.authMu.Unlock()

	v, _, _ := h.authFlight.Do("auth-status", func() (any, error) {
		enabled, ttl := true, authFailureTTL
		st, err := h.Backend.AuthStatus(context.WithoutCancel(ctx))
		if err != nil {
			h.log(ctx).Warn("auth status unavailable", "error", err)
		} else {
			enabled, ttl = st.Configured, authStatusTTL
		}
		h.authMu.Lock()
		h.authEnabled = enabled
		h.authExpires = time.Now().Add(ttl)
		h.authMu.Unlock()
		return enabled, nil
	})
	return v.(bool)
}

func (h *Handler) session(r *http.Request) *session.Session {
	if s, ok := session.FromContext(r.Context()); ok {
		return s
	}
	// Routes are always mounted behind session.Middleware; this keeps
	// handlers usable in isolation.
	return h.Sessions.Create()
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

// Patch modes understood by the datastar client for HTML responses.
const (
	patchOuter   = "outer"
	patchReplace = "replace"
	patchAppend  = "append"
)

// renderPatch answers a fragment request. Without a selector every
// top-level element is morphed into the element with the same id.
func renderPatch(w http.ResponseWriter, selector, mode string, nodes ...gomponents.Node) {
	if selector != "" {
		w.Header().Set("datastar-selector", selector)
	}
	if mode != "" && mode != patchOuter {
		w.Header().Set("datastar-mode", mode)
	}
	renderHTML(w, http.StatusOK, gomponents.Group(nodes))
}

// patch is one element patch of a multi-patch response.
type patch struct {
	Selector string
	Mode     string
	Nodes    []gomponents.Node
}

// renderPatches answers with a datastar event stream carrying one
// patch-elements event per patch, in order. It is used when a response
// touches elements with different modes, such as rows appended to a table
// body next to a morphed footer.
func renderPatches(w http.ResponseWriter, patches ...patch) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	var buf strings.Builder
	for _, p := range patches {
		buf.Reset()
		_ = gomponents.Group(p.Nodes).Render(&buf)
		_, _ = io.WriteString(w, "event: datastar-patch-elements\n")
		if p.Selector != "" {
			_, _ = fmt.Fprintf(w, "data: selector %s\n", p.Selector)
		}
		if p.Mode != "" && p.Mode != patchOuter {
			_, _ = fmt.Fprintf(w, "data: mode %s\n", p.Mode)
		}
		for _, line := range strings.Split(buf.String(), "\n") {
			_, _ = fmt.Fprintf(w, "data: elements %s\n", line)
		}
		_, _ = io.WriteString(w, "\n")
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func isFragmentRequest(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// signal returns a request value from the query string, falling back to the
// datastar signal of the same name.
func signal(r *http.Request, name string) string {
	if v, ok := r.URL.Query()[name]; ok && len(v) > 0 {
		return v[0]
	}
	raw := r.URL.Query().Get("datastar")
	if raw == "" {
		return ""
	}
	var signals map[string]any
	if err := json.Unmarshal([]byte(raw), &signals); err != nil {
		return ""
	}
	return backend.Stringify(signals[name])
}

func principalLabel(ctx context.Context) (string, bool) {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok || strings.TrimSpace(p.DisplayName()) == "" {
		return "", false
	}
	return p.DisplayName(), p.IsAdmin()
}
