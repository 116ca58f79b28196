package ui

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"idrecon/internal/backend"
	"idrecon/internal/session"
	"idrecon/internal/table"
	"idrecon/internal/upload"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// loadPageView reloads a page's table view and renders its first chunk.
// extra runs in parallel with the load. Only an expired login aborts the
// page; other failures are shown inside the table.
func (h *Handler) loadPageView(w http.ResponseWriter, r *http.Request, def viewDef, extra func(ctx context.Context) error) (*session.Session, *table.View, bool) {
	sess := h.session(r)
	v, err := h.view(r, sess, def)
	if err != nil {
		h.handleBackendError(w, r, err)
		return nil, nil, false
	}

	// A failing side load must not cancel the table load.
	var g errgroup.Group
	ctx := r.Context()
	g.Go(func() error {
		return h.ensureLoaded(ctx, r, sess, def, v, true)
	})
	if extra != nil {
		g.Go(func() error { return extra(ctx) })
	}
	if err := g.Wait(); err != nil {
		if backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return nil, nil, false
		}
		h.log(r.Context()).Warn("page data incomplete", "view", def.Name, "error", err)
	}
	v.Rewind()
	v.NextChunk()
	return sess, v, true
}

// Home is the consolidated table page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	def := staticViews[viewConsolidated]
	var stats *backend.Stats
	_, v, ok := h.loadPageView(w, r, def, func(ctx context.Context) error {
		s, err := h.client(r).Stats(ctx)
		if err != nil {
			return err
		}
		stats = s
		return nil
	})
	if !ok {
		return
	}
	full := A(Href("/ui/export/consolidated.xlsx"), Class("btn btn-sm"), Attr("download", ""), Text("Полная выгрузка"))
	renderHTML(w, http.StatusOK, appPage(r, "Сводная таблица", "consolidated",
		pageHeader("", upload.StatsLine(stats)),
		tableSection(def, v, full),
	))
}

// Duplicates lists logins present in more than one AD domain.
func (h *Handler) Duplicates(w http.ResponseWriter, r *http.Request) {
	def := staticViews[viewDuplicates]
	sess, v, ok := h.loadPageView(w, r, def, nil)
	if !ok {
		return
	}
	summary := ""
	if cached, ok := sess.Cached(cacheDuplicates); ok {
		if d, ok := cached.(*backend.Duplicates); ok && d != nil {
			summary = fmt.Sprintf("Записей: %d · Уникальных логинов: %d", d.TotalRecords, d.UniqueLogins)
		}
	}
	renderHTML(w, http.StatusOK, appPage(r, "Дубли логинов", "duplicates",
		pageHeader("", "Логины, которые встречаются более чем в одном домене AD.", summary),
		tableSection(def, v),
	))
}
