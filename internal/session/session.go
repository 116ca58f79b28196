// Package session keeps the per-browser server-side state of the dashboard:
// table views, tree selections and cached backend documents.
package session

import (
	"context"
	"sync"
	"time"

	"idrecon/internal/domain"
	"idrecon/internal/table"
)

// DefaultTTL is the idle time after which a session is dropped.
const DefaultTTL = 30 * time.Minute

// DefaultMaxSessions bounds the sessions kept in memory at once.
const DefaultMaxSessions = 10000

// TreeState is the navigation state of one tree page.
type TreeState struct {
	Filter     string
	ActiveOnly bool
	// Selected is the key of the node whose members are shown.
	Selected string
}

// Session is the state of one browser. All methods are safe for concurrent
// use.
type Session struct {
	ID string

	mu       sync.Mutex
	views    map[string]*table.View
	trees    map[string]TreeState
	cache    map[string]any
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		views:    map[string]*table.View{},
		trees:    map[string]TreeState{},
		cache:    map[string]any{},
		lastSeen: now,
	}
}

// View returns the named view, creating it with create on first use.
func (s *Session) View(name string, create func() *table.View) *table.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[name]
	if !ok {
		v = create()
		s.views[name] = v
	}
	return v
}

// LookupView returns an existing view.
func (s *Session) LookupView(name string) (*table.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[name]
	return v, ok
}

// ReplaceView installs v under name, dropping the previous view.
func (s *Session) ReplaceView(name string, v *table.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[name] = v
}

// Tree returns the state of a tree page.
func (s *Session) Tree(page string) TreeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trees[page]
}

// SetTree stores the state of a tree page.
func (s *Session) SetTree(page string, st TreeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[page] = st
}

// Cached returns a cached backend document.
func (s *Session) Cached(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache[key]
	return v, ok
}

// SetCached caches a backend document until the next invalidation.
func (s *Session) SetCached(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = v
}

// InvalidateViews forgets all loaded data after the backend data changed.
// Filters, sort and tree selections survive.
func (s *Session) InvalidateViews() {
	s.mu.Lock()
	views := make([]*table.View, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	s.cache = map[string]any{}
	s.mu.Unlock()

	for _, v := range views {
		v.Invalidate()
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idle(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Store holds the live sessions. When it is full the least recently used
// session makes room for a new one.
type Store struct {
	ttl time.Duration
	max int
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates a store evicting sessions idle for longer than ttl and
// holding at most DefaultMaxSessions.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{ttl: ttl, max: DefaultMaxSessions, now: time.Now, sessions: map[string]*Session{}}
}

// SetLimit bounds the number of stored sessions. n <= 0 restores the
// default.
func (st *Store) SetLimit(n int) {
	if n <= 0 {
		n = DefaultMaxSessions
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.max = n
}

// Get returns a live session and marks it used.
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if s.idle(now) > st.ttl {
		delete(st.sessions, id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Create starts a new session with a random id.
func (st *Store) Create() *Session {
	now := st.now()
	s := newSession(domain.NewID(), now)
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.sessions) >= st.max {
		st.sweep(now)
	}
	for len(st.sessions) >= st.max {
		st.evictOldest(now)
	}
	st.sessions[s.ID] = s
	return s
}

// evictOldest drops the session that was used least recently. Callers
// hold st.mu.
func (st *Store) evictOldest(now time.Time) {
	oldest := ""
	var longest time.Duration = -1
	for id, s := range st.sessions {
		if idle := s.idle(now); idle > longest {
			oldest, longest = id, idle
		}
	}
	delete(st.sessions, oldest)
}

// GetOrCreate returns the session id names, or a new one.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

// Delete drops a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes idle sessions and returns how many were dropped.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweep(st.now())
}

func (st *Store) sweep(now time.Time) int {
	dropped := 0
	for id, s := range st.sessions {
		if s.idle(now) > st.ttl {
			delete(st.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the request's session.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
