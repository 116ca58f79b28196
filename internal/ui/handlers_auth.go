package ui

import (
	"net/http"
	"strings"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
	"idrecon/internal/middleware"
	"idrecon/internal/prefs"
	"idrecon/internal/session"
)

const cachePrincipal = "auth:me"

// LoginPage shows the sign-in form. It never redirects to itself.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if !h.authRequired(r.Context()) || (BearerToken(r) != "" && !middleware.TokenRejected(r.Context())) {
		http.Redirect(w, r, "/ui", http.StatusSeeOther)
		return
	}
	renderHTML(w, http.StatusOK, loginPage(r, loginForm{}, ""))
}

// LoginSubmit exchanges directory credentials for a backend token.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, loginPage(r, loginForm{}, "Некорректная форма"))
		return
	}
	form := loginForm{
		Username: formString(r.Form, "username"),
		Domain:   formString(r.Form, "domain"),
	}
	password := formSecret(r.Form, "password")
	if form.Username == "" || password == "" {
		renderHTML(w, http.StatusBadRequest, loginPage(r, form, "Введите логин и пароль"))
		return
	}

	res, err := h.Backend.Login(r.Context(), backend.LoginRequest{
		Username: form.Username,
		Password: password,
		Domain:   form.Domain,
	})
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.log(r.Context()).Info("login rejected", "username", form.Username, "domain", form.Domain)
			renderHTML(w, http.StatusUnauthorized, loginPage(r, form, "Неверный логин или пароль"))
			return
		}
		h.log(r.Context()).Error("login failed", "username", form.Username, "error", err)
		renderHTML(w, http.StatusBadGateway, loginPage(r, form, errorText(err)))
		return
	}

	prefs.SetToken(h.prefs(w, r), res.Token)
	sess := h.session(r)
	sess.InvalidateViews()
	sess.SetCached(cachePrincipal, domain.ContextPrincipal{
		Username: res.User.Username,
		Name:     res.User.DisplayName,
		Role:     res.User.Role,
		Domain:   res.User.Domain,
	})
	h.log(r.Context()).Info("operator signed in", "username", res.User.Username, "role", res.User.Role)
	http.Redirect(w, r, "/ui", http.StatusSeeOther)
}

// Logout forgets the token and the server-side session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	store := h.prefs(w, r)
	prefs.ClearCredentials(store)
	if sess, ok := session.FromContext(r.Context()); ok {
		h.Sessions.Delete(sess.ID)
		store.Clear(prefs.KeySession)
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// LoadPrincipal fills in the operator for tokens the token inspector could
// not read, asking the backend's /me once per session.
func (h *Handler) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := domain.PrincipalFromContext(r.Context()); ok || BearerToken(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess := h.session(r)
		if cached, ok := sess.Cached(cachePrincipal); ok {
			if p, ok := cached.(domain.ContextPrincipal); ok {
				next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
				return
			}
		}
		me, err := h.client(r).Me(r.Context())
		if err != nil {
			if backend.IsUnauthorized(err) {
				h.redirectToLogin(w, r)
				return
			}
			h.log(r.Context()).Debug("operator lookup failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		p := domain.ContextPrincipal{Username: me.Username, Name: strings.TrimSpace(me.Name), Role: me.Role, Domain: me.Domain}
		sess.SetCached(cachePrincipal, p)
		next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
	})
}
