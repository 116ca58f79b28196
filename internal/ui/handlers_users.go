package ui

import (
	"context"
	"net/http"
	"strings"

	"idrecon/internal/backend"
	"idrecon/internal/card"
	"idrecon/internal/finder"
	"idrecon/internal/session"

	. "maragu.dev/gomponents/html"
)

const cacheUsers = "users:list"

func (h *Handler) userIndex(ctx context.Context, r *http.Request, sess *session.Session, reload bool) ([]backend.UserSummary, error) {
	if !reload {
		if cached, ok := sess.Cached(cacheUsers); ok {
			if users, ok := cached.([]backend.UserSummary); ok {
				return users, nil
			}
		}
	}
	list, err := h.client(r).UserList(ctx)
	if err != nil {
		return nil, err
	}
	sess.SetCached(cacheUsers, list.Users)
	return list.Users, nil
}

// Users renders the finder page. ?key= opens a card in the side panel.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	users, err := h.userIndex(r.Context(), r, sess, true)
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		h.log(r.Context()).Warn("user list unavailable", "error", err)
	}

	panel := userCardPlaceholder()
	if key := strings.TrimSpace(r.URL.Query().Get("key")); key != "" {
		c, err := card.Load(r.Context(), h.client(r), key, "")
		if err != nil && backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		panel = userCardPanel(c, err)
	}

	renderHTML(w, http.StatusOK, appPage(r, "Пользователи", "users",
		Div(Class("split"),
			userFinder(finder.Find(users, ""), err),
			panel,
		),
	))
}

// UserList filters the finder index cached in the session.
func (h *Handler) UserList(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	users, err := h.userIndex(r.Context(), r, sess, false)
	if err != nil && backend.IsUnauthorized(err) {
		h.redirectToLogin(w, r)
		return
	}
	renderPatch(w, "", patchOuter, userList(finder.Find(users, signal(r, "q")), err))
}
