// Package prefs persists per-browser preferences: the backend bearer token,
// the colour theme and the session id.
package prefs

import (
	"net/http"
	"strings"
	"time"
)

// Keys of the stored preferences.
const (
	KeyBearer  = "bearer"
	KeyTheme   = "theme"
	KeySession = "session"
)

// Lifetimes of the stored preferences.
const (
	BearerTTL  = 24 * time.Hour
	ThemeTTL   = 365 * 24 * time.Hour
	SessionTTL = 12 * time.Hour
)

// Store reads and writes preferences.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Clear(key string)
}

// CookieName maps a preference key to its cookie.
func CookieName(key string) string {
	return "ui_" + key
}

// CookieStore keeps preferences in HttpOnly cookies of one request/response
// pair. Values set during the request are visible to later Gets.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool
	local  map[string]*string
}

// NewCookieStore binds a store to w and r. secure marks cookies Secure, as
// in production behind TLS.
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, secure: secure, local: map[string]*string{}}
}

// Get returns the value of key.
func (s *CookieStore) Get(key string) (string, bool) {
	if v, ok := s.local[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	c, err := s.r.Cookie(CookieName(key))
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	return v, v != ""
}

// Set stores value for ttl.
func (s *CookieStore) Set(key, value string, ttl time.Duration) {
	http.SetCookie(s.w, s.cookie(key, value, int(ttl.Seconds())))
	s.local[key] = &value
}

// Clear removes key.
func (s *CookieStore) Clear(key string) {
	http.SetCookie(s.w, s.cookie(key, "", -1))
	s.local[key] = nil
}

func (s *CookieStore) cookie(key, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName(key),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// Theme is the colour scheme preference.
type Theme string

// Themes in cycling order.
const (
	ThemeAuto  Theme = "auto"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts a stored value, defaulting to auto.
func ParseTheme(v string) Theme {
	switch Theme(v) {
	case ThemeLight, ThemeDark:
		return Theme(v)
	default:
		return ThemeAuto
	}
}

// Next cycles auto → light → dark → auto.
func (t Theme) Next() Theme {
	switch t {
	case ThemeAuto:
		return ThemeLight
	case ThemeLight:
		return ThemeDark
	default:
		return ThemeAuto
	}
}

// Label is the switcher caption.
func (t Theme) Label() string {
	switch t {
	case ThemeLight:
		return "Светлая"
	case ThemeDark:
		return "Тёмная"
	default:
		return "Авто"
	}
}

// ThemeOf reads the theme from s.
func ThemeOf(s Store) Theme {
	v, _ := s.Get(KeyTheme)
	return ParseTheme(v)
}

// SetTheme stores t.
func SetTheme(s Store, t Theme) {
	s.Set(KeyTheme, string(t), ThemeTTL)
}

// Token returns the stored bearer token.
func Token(s Store) string {
	v, _ := s.Get(KeyBearer)
	return v
}

// SetToken stores a bearer token.
func SetToken(s Store, token string) {
	s.Set(KeyBearer, token, BearerTTL)
}

// ClearCredentials forgets the bearer token.
func ClearCredentials(s Store) {
	s.Clear(KeyBearer)
}
