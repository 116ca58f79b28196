package session

import (
	"net/http"

	"idrecon/internal/prefs"
)

// Middleware attaches the browser's session to every request, creating one
// and setting its cookie when needed.
func Middleware(store *Store, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := prefs.NewCookieStore(w, r, secureCookies)
			id, _ := p.Get(prefs.KeySession)
			s, created := store.GetOrCreate(id)
			if created {
				p.Set(prefs.KeySession, s.ID, prefs.SessionTTL)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
