package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

const (
	csrfCookieName = "ui_csrf"
	csrfFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

type csrfContextKey struct{}

// EnsureCSRFToken issues the double-submit cookie on first visit.
func (h *Handler) EnsureCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := readCSRFCookie(r)
		if token == "" {
			token = randomToken(32)
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), csrfContextKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCSRF rejects mutating requests whose form field or header does not
// repeat the cookie token.
func (h *Handler) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		cookieToken := readCSRFCookie(r)
		if cookieToken == "" {
			h.csrfFailed(w, r, "Отсутствует CSRF-cookie.")
			return
		}

		formToken := strings.TrimSpace(r.Header.Get(csrfHeaderName))
		if formToken == "" {
			// FormValue also parses multipart bodies of file uploads.
			formToken = strings.TrimSpace(r.FormValue(csrfFieldName))
		}

		if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(formToken)) != 1 {
			h.csrfFailed(w, r, "Неверный или отсутствующий CSRF-токен. Обновите страницу.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) csrfFailed(w http.ResponseWriter, r *http.Request, message string) {
	if isFragmentRequest(r) {
		w.Header().Set("datastar-selector", "#flash")
		renderHTML(w, http.StatusForbidden, flash(message))
		return
	}
	renderHTML(w, http.StatusForbidden, errorPage(r, "Ошибка проверки CSRF", message))
}

func csrfToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	if token == "" {
		token = readCSRFCookie(r)
	}
	return token
}

func csrfField(r *http.Request) gomponents.Node {
	return html.Input(
		html.Type("hidden"),
		html.Name(csrfFieldName),
		html.Value(csrfToken(r)),
	)
}

func readCSRFCookie(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func randomToken(size int) string {
	if size < 16 {
		size = 16
	}
	b := make([]byte, size)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
