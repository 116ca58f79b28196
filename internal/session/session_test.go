package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idrecon/internal/table"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *clock) {
	c := &clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	st := NewStore(ttl)
	st.now = c.Now
	return st, c
}

func TestStore_GetOrCreate(t *testing.T) {
	st, _ := newTestStore(time.Minute)

	s, created := st.GetOrCreate("")
	require.True(t, created)
	require.NotEmpty(t, s.ID)

	again, created := st.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)
	assert.Equal(t, 1, st.Len())
}

func TestStore_IdleEviction(t *testing.T) {
	st, c := newTestStore(30 * time.Minute)
	a := st.Create()
	b := st.Create()

	c.Advance(20 * time.Minute)
	_, ok := st.Get(a.ID)
	require.True(t, ok)

	c.Advance(15 * time.Minute)
	assert.Equal(t, 1, st.Sweep())
	_, ok = st.Get(b.ID)
	assert.False(t, ok)
	_, ok = st.Get(a.ID)
	assert.True(t, ok)
}

func TestStore_GetExpiredWithoutSweep(t *testing.T) {
	st, c := newTestStore(time.Minute)
	s := st.Create()
	c.Advance(2 * time.Minute)

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
	assert.Zero(t, st.Len())
}

func TestStore_FullEvictsLeastRecentlyUsed(t *testing.T) {
	st, c := newTestStore(time.Hour)
	st.SetLimit(3)
	a := st.Create()
	c.Advance(time.Second)
	b := st.Create()
	c.Advance(time.Second)
	d := st.Create()
	c.Advance(time.Second)
	_, ok := st.Get(a.ID)
	require.True(t, ok)

	for range 2 {
		c.Advance(time.Second)
		st.Create()
	}
	assert.Equal(t, 3, st.Len())

	_, ok = st.Get(a.ID)
	assert.True(t, ok, "recently used session survives")
	_, ok = st.Get(b.ID)
	assert.False(t, ok)
	_, ok = st.Get(d.ID)
	assert.False(t, ok)
}

func TestStore_FullSweepsIdleFirst(t *testing.T) {
	st, c := newTestStore(time.Minute)
	st.SetLimit(2)
	st.Create()
	st.Create()
	c.Advance(2 * time.Minute)

	fresh := st.Create()
	assert.Equal(t, 1, st.Len())
	_, ok := st.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSession_InvalidateViewsKeepsFilters(t *testing.T) {
	s := newSession("x", time.Now())
	cols := table.Columns{{Key: "login", Label: "Логин"}}
	v := s.View("consolidated", func() *table.View { return table.NewView(cols, 0) })
	require.True(t, v.Load(v.Begin(), []map[string]string{{"login": "a"}}))
	v.SetGlobal("a")
	s.SetCached("groups_tree", 1)
	s.SetTree("groups", TreeState{Filter: "vpn", Selected: "moscow/VPN"})

	s.InvalidateViews()

	assert.False(t, v.Loaded())
	assert.Equal(t, "a", v.Snapshot().Filters.Global)
	_, ok := s.Cached("groups_tree")
	assert.False(t, ok)
	assert.Equal(t, "moscow/VPN", s.Tree("groups").Selected)

	same := s.View("consolidated", func() *table.View { t.Fatal("view recreated"); return nil })
	assert.Same(t, v, same)
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	st, _ := newTestStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestMiddleware_SetsCookieOnce(t *testing.T) {
	st := NewStore(time.Minute)
	var seen *Session
	h := Middleware(st, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromContext(r.Context())
		require.True(t, ok)
		seen = s
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "ui_session", cookies[0].Name)
	first := seen

	req := httptest.NewRequest(http.MethodGet, "/ui", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Same(t, first, seen)
}
