package ui

import (
	"net/http"

	"idrecon/internal/backend"
	"idrecon/internal/middleware"
	"idrecon/internal/prefs"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

const loginPath = "/ui/login"

// RequireLogin sends requests without a usable backend token to the login
// form. When the backend runs without authentication the gate is open.
func (h *Handler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.authRequired(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		if BearerToken(r) == "" || middleware.TokenRejected(r.Context()) {
			h.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirectToLogin drops the stored credentials and sends the browser to the
// login form exactly once: plain requests get a 303, fragment requests a
// one-shot location change.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	prefs.ClearCredentials(h.prefs(w, r))
	if isFragmentRequest(r) {
		renderPatch(w, "body", patchAppend, html.Div(
			html.ID("auth-redirect"),
			gomponents.Attr("data-effect", "window.location.assign('"+loginPath+"')"),
		))
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// handleBackendError renders err for a page or fragment request. A 401 from
// the backend ends the session.
func (h *Handler) handleBackendError(w http.ResponseWriter, r *http.Request, err error) {
	if backend.IsUnauthorized(err) {
		h.redirectToLogin(w, r)
		return
	}
	h.log(r.Context()).Error("backend request failed", "path", r.URL.Path, "error", err)
	if isFragmentRequest(r) {
		renderPatch(w, "#flash", patchOuter, flash(errorText(err)))
		return
	}
	h.renderServiceError(w, r, err)
}
