package ui

import (
	"net/http"

	"idrecon/internal/backend"
	"idrecon/internal/table"
)

// Security renders the findings report with one table view per finding.
func (h *Handler) Security(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	rep, err := securityReport(r.Context(), h.client(r), sess, true)
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		h.log(r.Context()).Error("security report failed", "error", err)
		renderHTML(w, http.StatusOK, appPage(r, "Безопасность", "security", securityError(err)))
		return
	}

	views := make(map[string]*table.View, len(rep.Findings))
	for _, f := range rep.Findings {
		if f.Count == 0 && len(f.Items) == 0 {
			continue
		}
		def := securityView(f.ID)
		v, err := h.view(r, sess, def)
		if err != nil {
			continue
		}
		if err := h.ensureLoaded(r.Context(), r, sess, def, v, true); err != nil {
			h.log(r.Context()).Warn("finding view failed", "finding", f.ID, "error", err)
		}
		v.Rewind()
		v.NextChunk()
		views[f.ID] = v
	}
	renderHTML(w, http.StatusOK, appPage(r, "Безопасность", "security", securityPage(rep, views)))
}
