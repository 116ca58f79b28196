package ui

import (
	"net/http"
	"net/url"
	"strings"

	"idrecon/internal/backend"
	"idrecon/internal/card"
)

// Card presentation modes.
const (
	cardPanel = "panel"
	cardPopup = "popup"
)

func userCardURL(key, mode string) string {
	return "/ui/cards/user?" + url.Values{"key": {key}, "mode": {mode}}.Encode()
}

func dnCardURL(dn, name string) string {
	q := url.Values{"dn": {dn}}
	if name != "" {
		q.Set("name", name)
	}
	return "/ui/cards/dn?" + q.Encode()
}

// UserCard renders an identity card into the finder panel or as a new
// popup on top of the stack.
func (h *Handler) UserCard(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	mode := r.URL.Query().Get("mode")
	c, err := card.Load(r.Context(), h.client(r), key, r.URL.Query().Get("name"))
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		h.log(r.Context()).Warn("user card failed", "key", key, "error", err)
	}
	if mode == cardPanel {
		renderPatch(w, "", patchOuter, userCardPanel(c, err))
		return
	}
	renderPatch(w, "#card-stack", patchAppend, popup(userCardBody(c, err)))
}

// DNCard follows a directory-name link: a known identity opens its card,
// anything else the raw object view.
func (h *Handler) DNCard(w http.ResponseWriter, r *http.Request) {
	dn := strings.TrimSpace(r.URL.Query().Get("dn"))
	name := r.URL.Query().Get("name")
	res, err := card.Resolve(r.Context(), h.client(r), dn, name)
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		h.log(r.Context()).Warn("dn resolution failed", "dn", dn, "error", err)
		renderPatch(w, "#card-stack", patchAppend, popup(cardError(err)))
		return
	}
	if res.Raw != nil {
		renderPatch(w, "#card-stack", patchAppend, popup(rawObjectBody(*res.Raw)))
		return
	}
	c, err := card.Load(r.Context(), h.client(r), res.Key, res.DisplayName)
	if err != nil && backend.IsUnauthorized(err) {
		h.redirectToLogin(w, r)
		return
	}
	renderPatch(w, "#card-stack", patchAppend, popup(userCardBody(c, err)))
}
