package ui

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
	"idrecon/internal/session"

	. "maragu.dev/gomponents/html"
)

func treeCacheKey(p treePage) string { return p.Key + ":tree" }

// treeSource returns the page's navigation tree, fetching it when it is not
// cached in the session or when reload is set.
func (h *Handler) treeSource(ctx context.Context, r *http.Request, sess *session.Session, p treePage, reload bool) ([]navNode, error) {
	if !reload {
		if cached, ok := sess.Cached(treeCacheKey(p)); ok {
			if nodes, ok := cached.([]navNode); ok {
				return nodes, nil
			}
		}
	}
	nodes, err := p.LoadTree(ctx, h.client(r))
	if err != nil {
		return nil, err
	}
	sess.SetCached(treeCacheKey(p), nodes)
	return nodes, nil
}

// TreePage renders a tree page. A deep link (?domain=&group=, ?domain=&path=,
// ?company=&department=) selects its node; the tree and the members of the
// selection are fetched in parallel.
func (h *Handler) TreePage(key string) http.HandlerFunc {
	p := treePages[key]
	return func(w http.ResponseWriter, r *http.Request) {
		sess := h.session(r)
		st := sess.Tree(p.Key)
		if sel := p.Selection(r.URL.Query()); sel != "" && sel != st.Selected {
			st.Selected = sel
			sess.SetTree(p.Key, st)
			if v, ok := sess.LookupView(p.MembersView()); ok {
				v.Reset()
			}
		}

		def := membersView(p)
		v, err := h.view(r, sess, def)
		if err != nil {
			h.handleBackendError(w, r, err)
			return
		}

		var (
			nodes   []navNode
			treeErr error
			g       errgroup.Group
		)
		g.Go(func() error {
			nodes, treeErr = h.treeSource(r.Context(), r, sess, p, true)
			return treeErr
		})
		g.Go(func() error {
			return h.ensureLoaded(r.Context(), r, sess, def, v, true)
		})
		if err := g.Wait(); err != nil && backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		v.Rewind()
		v.NextChunk()
		st = sess.Tree(p.Key)

		renderHTML(w, http.StatusOK, appPage(r, p.Title, p.Key,
			Div(Class("split"),
				treePanel(p, st, nodes, treeErr),
				membersPanel(p, sess, def, v),
			),
		))
	}
}

// TreeFragment rebuilds the tree after a filter or active-only change.
func (h *Handler) TreeFragment(key string) http.HandlerFunc {
	p := treePages[key]
	return func(w http.ResponseWriter, r *http.Request) {
		sess := h.session(r)
		st := sess.Tree(p.Key)
		st.Filter = signal(r, "filter")
		st.ActiveOnly = signal(r, "active") == "true"
		sess.SetTree(p.Key, st)

		nodes, err := h.treeSource(r.Context(), r, sess, p, false)
		if err != nil && backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		renderPatch(w, "", patchOuter, treeView(p, st, nodes, err))
	}
}

// TreeMembers selects a node and loads its members. The tree is sent back
// as well so the selection mark moves.
func (h *Handler) TreeMembers(key string) http.HandlerFunc {
	p := treePages[key]
	return func(w http.ResponseWriter, r *http.Request) {
		sel, err := url.ParseQuery(r.URL.Query().Get("key"))
		if err != nil || p.Selection(sel) == "" {
			h.handleBackendError(w, r, domain.ErrValidation("некорректный узел дерева"))
			return
		}
		sess := h.session(r)
		st := sess.Tree(p.Key)
		st.Selected = p.Selection(sel)
		sess.SetTree(p.Key, st)

		def := membersView(p)
		v, err := h.view(r, sess, def)
		if err != nil {
			h.handleBackendError(w, r, err)
			return
		}
		v.Reset()
		if err := h.ensureLoaded(r.Context(), r, sess, def, v, true); err != nil && backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		v.NextChunk()

		// Another click may have moved the selection while this one was
		// loading; the members table holds the latest load, so the tree
		// marks the latest selection.
		st = sess.Tree(p.Key)
		nodes, treeErr := h.treeSource(r.Context(), r, sess, p, false)
		renderPatch(w, "", patchOuter, treeView(p, st, nodes, treeErr), membersPanel(p, sess, def, v))
	}
}
